package notify

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
)

// DefaultTemplate renders a notification as one chat line.
const DefaultTemplate = "*{{.Title}}*\n{{.Content}}{{with .Link}}\n{{.}}{{end}}"

// RenderData is what a message template sees. Link is the absolute review
// link, empty when the notification has none.
type RenderData struct {
	Title   string
	Content string
	Type    string
	UserID  string
	Link    string
}

// ParseTemplate compiles a message template. An empty text selects
// DefaultTemplate.
func ParseTemplate(text string) (*template.Template, error) {
	if text == "" {
		text = DefaultTemplate
	}
	tmpl, err := template.New("notification").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("notify: parse template: %w", err)
	}
	return tmpl, nil
}

// Render executes tmpl for n, prefixing its link with linkBase.
func Render(tmpl *template.Template, n *models.Notification, linkBase string) (string, error) {
	data := RenderData{
		Title:   n.Title,
		Content: n.Content,
		Type:    n.Type,
		UserID:  n.UserID,
	}
	if n.LinkURL != "" {
		data.Link = strings.TrimRight(linkBase, "/") + n.LinkURL
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("notify: render notification %d: %w", n.ID, err)
	}
	return b.String(), nil
}
