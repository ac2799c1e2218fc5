package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// AssignmentNotice tells a staff member a record was assigned to them.
type AssignmentNotice struct {
	StaffName  string
	StaffEmail string
	RecordKind string // "student" or "enquiry"
	RecordName string
	Detail     string // course for students, message snippet for enquiries
	Link       string // portal URL of the record list
}

var noticeTmpl = template.Must(template.New("notice").Parse(`<p>Hi {{.StaffName}},</p>
<p>A new {{.RecordKind}} has been assigned to you: <strong>{{.RecordName}}</strong>.</p>
{{if .Detail}}<p>{{.Detail}}</p>{{end}}
{{if .Link}}<p><a href="{{.Link}}">Open the admissions portal</a></p>{{end}}`))

// Request renders the notice as a SendRequest.
// PRE: StaffEmail is non-empty
// POST: HTML body has every field escaped
func (n AssignmentNotice) Request() (SendRequest, error) {
	if n.StaffEmail == "" {
		return SendRequest{}, ErrNoRecipient
	}
	var buf bytes.Buffer
	if err := noticeTmpl.Execute(&buf, n); err != nil {
		return SendRequest{}, fmt.Errorf("render assignment notice: %w", err)
	}
	return SendRequest{
		To:      []string{n.StaffEmail},
		Subject: fmt.Sprintf("New %s assigned: %s", n.RecordKind, n.RecordName),
		HTML:    buf.String(),
	}, nil
}
