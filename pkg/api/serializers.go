package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
)

type categoryView struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

type levelView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type themeView struct {
	ID       int64   `json:"id"`
	Category int64   `json:"category"`
	Level    int64   `json:"level"`
	Name     string  `json:"name"`
	Photo    *string `json:"photo"`
}

type wordRefView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type themeDetailView struct {
	themeView
	Words []wordRefView `json:"words"`
}

type wordView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Translation   string  `json:"translation"`
	Transcription string  `json:"transcription"`
	Example       string  `json:"example"`
	Sound         *string `json:"sound"`
}

// fileURL renders a stored media path as an absolute URL, nil when unset.
// A relative MEDIA_URL is resolved against the request's host.
func (s *Server) fileURL(r *http.Request, p string) *string {
	if p == "" {
		return nil
	}
	rel := (&url.URL{Path: p}).EscapedPath()
	base := s.mediaURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u := base + rel
	if !strings.Contains(base, "://") {
		scheme := "http"
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		u = scheme + "://" + r.Host + u
	}
	return &u
}

func (s *Server) categoryView(r *http.Request, c db.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Icon: s.fileURL(r, c.Icon)}
}

func levelViewOf(l db.Level) levelView {
	return levelView{ID: l.ID, Name: l.Name, Code: l.Code}
}

func (s *Server) themeView(r *http.Request, t db.Theme) themeView {
	return themeView{
		ID:       t.ID,
		Category: t.CategoryID,
		Level:    t.LevelID,
		Name:     t.Name,
		Photo:    s.fileURL(r, t.Photo),
	}
}

func (s *Server) wordView(r *http.Request, w db.Word) wordView {
	return wordView{
		ID:            w.ID,
		Name:          w.Name,
		Translation:   w.Translation,
		Transcription: s.transcriber.Transcription(w.Name),
		Example:       w.Example,
		Sound:         s.fileURL(r, w.Sound),
	}
}
