package staff

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"admissions/internal/domain/record"
	"admissions/internal/domain/rejection"
)

// Max length constants for user-editable fields.
const (
	MaxLinkLabelLength = 80
)

// Domain errors
var (
	ErrEmptyLinkLabel  = errors.New("link label cannot be empty")
	ErrLinkLabelLength = errors.New("link label cannot exceed 80 characters")
	ErrInvalidLinkURL  = errors.New("link must be an absolute http or https URL")
	ErrLinkNotFound    = errors.New("no document link with that label")
	ErrPasswordMissing = errors.New("password is required for a new staff member")
)

// Staff is a portal staff account as managed through the backend.
// Password is write-only: the backend never returns it.
type Staff struct {
	ID            int64             `json:"id,omitempty"`
	Name          string            `json:"name" validate:"required"`
	Email         string            `json:"email" validate:"required,email"`
	Phone         string            `json:"phone,omitempty"`
	LoginID       string            `json:"login_id" validate:"required"`
	Password      string            `json:"password,omitempty"`
	ActiveStatus  bool              `json:"active_status"`
	StudentCount  int               `json:"student_count,omitempty"`
	DocumentLinks map[string]string `json:"document_links,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty"`
}

// RecordID implements record.Identified.
func (s Staff) RecordID() int64 {
	return s.ID
}

// DisplayCode returns the row code shown in the staff table (#STF001 for index 0).
func DisplayCode(index int) string {
	return fmt.Sprintf("#STF%03d", index+1)
}

// Initial returns the avatar letter.
func (s Staff) Initial() string {
	return record.Initial(s.Name)
}

// Validate checks the form before submission. A password is only required
// when creating.
// PRE: Staff struct is populated
// POST: Returns nil if valid, field errors otherwise
func (s Staff) Validate(creating bool) rejection.FieldErrors {
	fe := record.Validate(s)
	if creating && strings.TrimSpace(s.Password) == "" {
		if fe == nil {
			fe = rejection.FieldErrors{}
		}
		fe.Add("password", ErrPasswordMissing.Error())
	}
	return fe
}

// ForUpdate returns a copy suitable for a PUT: an empty password is omitted
// so the backend keeps the current one, and display-only fields are dropped.
func (s Staff) ForUpdate() Staff {
	out := s
	if strings.TrimSpace(out.Password) == "" {
		out.Password = ""
	}
	out.StudentCount = 0
	return out
}

// Merge overlays edited form fields onto the original account.
func (s Staff) Merge(edited Staff) Staff {
	out := s
	out.Name = edited.Name
	out.Email = edited.Email
	out.Phone = edited.Phone
	out.LoginID = edited.LoginID
	out.Password = edited.Password
	out.ActiveStatus = edited.ActiveStatus
	return out
}

// Link is one document link, for ordered display.
type Link struct {
	Label string
	URL   string
}

// Links returns the document links sorted by label.
func (s Staff) Links() []Link {
	out := make([]Link, 0, len(s.DocumentLinks))
	for label, u := range s.DocumentLinks {
		out = append(out, Link{Label: label, URL: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// AddLink adds or replaces a document link.
// PRE: label is non-empty; rawURL is an absolute http(s) URL
// POST: DocumentLinks[label] == rawURL
func (s *Staff) AddLink(label, rawURL string) error {
	label = strings.TrimSpace(label)
	rawURL = strings.TrimSpace(rawURL)
	if label == "" {
		return ErrEmptyLinkLabel
	}
	if len(label) > MaxLinkLabelLength {
		return ErrLinkLabelLength
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidLinkURL
	}
	if s.DocumentLinks == nil {
		s.DocumentLinks = make(map[string]string)
	}
	s.DocumentLinks[label] = rawURL
	return nil
}

// RemoveLink deletes a document link by label.
// PRE: label exists in DocumentLinks
// POST: label is absent from DocumentLinks
func (s *Staff) RemoveLink(label string) error {
	if _, ok := s.DocumentLinks[label]; !ok {
		return ErrLinkNotFound
	}
	delete(s.DocumentLinks, label)
	return nil
}

// ActiveOnly filters to accounts that can receive assignments.
func ActiveOnly(list []Staff) []Staff {
	var out []Staff
	for _, s := range list {
		if s.ActiveStatus {
			out = append(out, s)
		}
	}
	return out
}

// Find returns the staff member with the given id.
func Find(list []Staff, id int64) (Staff, bool) {
	for _, s := range list {
		if s.ID == id {
			return s, true
		}
	}
	return Staff{}, false
}
