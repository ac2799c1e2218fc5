package record

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"admissions/internal/domain/rejection"
)

const requiredText = "This field is required."

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")

	validate = validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report errors under the JSON names the backend uses.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterTranslation("required", translator,
		func(t ut.Translator) error { return t.Add("required", requiredText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T("required", fe.Field())
			return s
		},
	)
}

// Validate checks struct tags and returns messages in the same field map
// shape as a backend rejection, or nil if the value is valid.
// PRE: v is a struct or pointer to struct
// POST: Returns nil or a non-empty FieldErrors keyed by JSON field name
func Validate(v any) rejection.FieldErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return rejection.FieldErrors{"": {err.Error()}}
	}
	fe := rejection.FieldErrors{}
	for _, e := range verrs {
		fe.Add(e.Field(), e.Translate(translator))
	}
	return fe
}
