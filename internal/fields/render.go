// Package fields renders submitted field entries into plain-text fragments
// and template values.
package fields

import (
	"strings"

	"github.com/shineum/form-mailer/internal/form"
)

const (
	// UploadedFileText is shown for a stored file with no display name.
	UploadedFileText = "Uploaded file"
	// FileNotFoundText is shown when a file field has no usable local file.
	FileNotFoundText = "Uploaded file not found"
)

// Policy carries the settings that influence rendering.
type Policy struct {
	SkipAttachments bool
}

// AttachRequest asks the composer to attach a local file.
type AttachRequest struct {
	Path string
	Name string
}

// Rendered is the result of rendering one entry.
type Rendered struct {
	// Entry is the submitted entry with Value normalized for templates.
	Entry form.Entry
	Text  string
	// Attach is set when a local file should be attached.
	Attach *AttachRequest
	// TagValue is the value text-like fields contribute to the tag mapping.
	TagValue string
}

// HTMLValue returns the value handed to the HTML template.
func (r Rendered) HTMLValue() any {
	return r.Entry.Value
}

type renderFunc func(e form.Entry, p Policy) Rendered

var renderers = map[form.Kind]renderFunc{
	form.KindFile:     renderFile,
	form.KindCheckbox: renderChoice,
	form.KindSelect:   renderChoice,
	form.KindConsent:  renderChoice,
	form.KindList:     renderList,
}

// Render renders one entry. Unknown kinds render like text.
func Render(e form.Entry, p Policy) Rendered {
	fn, ok := renderers[e.Type]
	if !ok {
		fn = renderText
	}
	return fn(e, p)
}

// RenderAll renders entries in submission order.
func RenderAll(sub form.Submission, p Policy) []Rendered {
	out := make([]Rendered, 0, len(sub))
	for _, e := range sub {
		out = append(out, Render(e, p))
	}
	return out
}

// Body joins rendered fields into the plain-text body, one labelled line per
// field in the order given.
func Body(rendered []Rendered) string {
	var b strings.Builder
	for i, r := range rendered {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- **")
		b.WriteString(r.Entry.Label)
		b.WriteString(":** ")
		b.WriteString(r.Text)
	}
	return b.String()
}

func renderText(e form.Entry, _ Policy) Rendered {
	v := e.Scalar()
	return Rendered{Entry: e, Text: v, TagValue: v}
}

func renderChoice(e form.Entry, _ Policy) Rendered {
	if list, ok := e.List(); ok {
		return Rendered{Entry: e, Text: strings.Join(list, ", ")}
	}
	return Rendered{Entry: e, Text: e.Scalar()}
}

func renderList(e form.Entry, _ Policy) Rendered {
	list, ok := e.List()
	if !ok || len(list) == 0 {
		return Rendered{Entry: e}
	}
	var b strings.Builder
	for _, item := range list {
		b.WriteString("\n*")
		b.WriteString(item)
	}
	return Rendered{Entry: e, Text: b.String()}
}

func renderFile(e form.Entry, p Policy) Rendered {
	att, ok := form.DecodeAttachment(e.Value)
	e.Value = nil
	if !ok {
		return Rendered{Entry: e, Text: FileNotFoundText}
	}
	e.Value = att

	if att.FilePath == "" {
		return Rendered{Entry: e, Text: FileNotFoundText}
	}

	r := Rendered{Entry: e, Text: att.Name}
	if r.Text == "" {
		r.Text = UploadedFileText
	}
	if !p.SkipAttachments {
		r.Attach = &AttachRequest{Path: att.FilePath, Name: att.Name}
	}
	return r
}
