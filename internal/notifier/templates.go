package notifier

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

const plainBody = `{{.Title}}

{{if .Summary}}{{.Summary}}

{{end}}Project: #{{.ProjectID}}
Time:    {{.Time}}

Sign in to review it.
`

const htmlBody = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2 style="color: {{.Color}};">{{.Title}}</h2>
  {{if .Summary}}<blockquote style="border-left: 3px solid #ccc; padding-left: 12px;">{{.Summary}}</blockquote>{{end}}
  <p><strong>Project:</strong> #{{.ProjectID}}<br><strong>Time:</strong> {{.Time}}</p>
  <p>Sign in to review it.</p>
</body>
</html>
`

// Templates holds the parsed email bodies.
type Templates struct {
	html  *htmltemplate.Template
	plain *template.Template
}

// TemplateData is the view of an Event used by the templates.
type TemplateData struct {
	Title     string
	Summary   string
	ProjectID int64
	Time      string
	Color     string
}

// LoadTemplates parses the email templates.
func LoadTemplates() (*Templates, error) {
	h, err := htmltemplate.New("event.html").Parse(htmlBody)
	if err != nil {
		return nil, err
	}
	p, err := template.New("event.txt").Parse(plainBody)
	if err != nil {
		return nil, err
	}
	return &Templates{html: h, plain: p}, nil
}

// RenderHTML renders the HTML email body.
func (t *Templates) RenderHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.html.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPlain renders the plain text email body.
func (t *Templates) RenderPlain(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.plain.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func kindColor(kind EventKind) string {
	switch kind {
	case EventFeedback:
		return "#1565c0"
	case EventGalleryUpload:
		return "#2e7d32"
	default:
		return "#757575"
	}
}

// EventToTemplateData converts an event to template data.
func EventToTemplateData(ev *Event) TemplateData {
	return TemplateData{
		Title:     ev.Title(),
		Summary:   truncate(ev.Summary, 500),
		ProjectID: ev.ProjectID,
		Time:      ev.Time.Format("2006-01-02 15:04 MST"),
		Color:     kindColor(ev.Kind),
	}
}

// truncate shortens s to max bytes with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
