package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
)

// FlashCookieName carries the one-shot toast shown after a redirect.
const FlashCookieName = "admissions_flash"

// Flash levels
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Level   string `json:"l"`
	Message string `json:"m"`
}

// IsError reports whether the flash reports a failure.
func (f Flash) IsError() bool {
	return f.Level == FlashError
}

// Flasher signs flash cookies so a client cannot forge a toast.
type Flasher struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewFlasher creates a flash cookie codec.
// PRE: hashKey is at least 32 bytes
func NewFlasher(hashKey []byte, secure bool) *Flasher {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(300)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Flasher{codec: codec, secure: secure}
}

// Set stores a flash for the next page view.
func (f *Flasher) Set(w http.ResponseWriter, flash Flash) {
	value, err := f.codec.Encode(FlashCookieName, flash)
	if err != nil {
		slog.Error("flash_encode_failed", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    value,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   300,
	})
}

// Success stores a success flash.
func (f *Flasher) Success(w http.ResponseWriter, msg string) {
	f.Set(w, Flash{Level: FlashSuccess, Message: msg})
}

// Error stores an error flash.
func (f *Flasher) Error(w http.ResponseWriter, msg string) {
	f.Set(w, Flash{Level: FlashError, Message: msg})
}

// Take reads and clears the pending flash.
// POST: the flash cookie is expired on the response whenever one was sent
func (f *Flasher) Take(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
	var flash Flash
	if err := f.codec.Decode(FlashCookieName, cookie.Value, &flash); err != nil {
		slog.Warn("flash_rejected", "error", err)
		return Flash{}, false
	}
	return flash, flash.Message != ""
}
