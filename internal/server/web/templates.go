package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/okovalenko/mediadrop/internal/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// messageData feeds the generic notice page.
type messageData struct {
	Title   string
	Message string
	Link    string
	Label   string
}

// dashboardData feeds the media listing.
type dashboardData struct {
	Username string
	Admin    bool
	Files    []*models.MediaFile
}

// playData feeds the playback page.
type playData struct {
	Name      string
	Video     bool
	StreamURL string
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, page, data); err != nil {
		s.logger.Error(context.Background(), "template error", "page", page, "error", err)
	}
}

func (s *Server) renderMessage(w http.ResponseWriter, status int, message, link, label string) {
	s.render(w, status, "message.html", messageData{
		Title:   "Notice",
		Message: message,
		Link:    link,
		Label:   label,
	})
}
