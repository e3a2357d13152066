package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
)

// listCategories handles GET /categories/
func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := db.ListCategories(s.db)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, s.categoryView(r, c))
	}
	writeJSON(w, http.StatusOK, out)
}

// listLevels handles GET /levels/
func (s *Server) listLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := db.ListLevels(s.db)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]levelView, 0, len(levels))
	for _, l := range levels {
		out = append(out, levelViewOf(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// listThemes handles GET /themes/?category=&level=
// A filter value that is not an id matches nothing.
func (s *Server) listThemes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f db.ThemeFilter
	for _, p := range []struct {
		key string
		dst **int64
	}{{"category", &f.CategoryID}, {"level", &f.LevelID}} {
		if !q.Has(p.key) {
			continue
		}
		id, err := strconv.ParseInt(q.Get(p.key), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusOK, []themeView{})
			return
		}
		*p.dst = &id
	}

	themes, err := db.ListThemes(s.db, f)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]themeView, 0, len(themes))
	for _, t := range themes {
		out = append(out, s.themeView(r, t))
	}
	writeJSON(w, http.StatusOK, out)
}

// getTheme handles GET /themes/{id}
func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	t, err := db.GetTheme(s.db, id)
	if errors.Is(err, db.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	words, err := db.ListWordsByTheme(s.db, id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	out := themeDetailView{themeView: s.themeView(r, t), Words: make([]wordRefView, 0, len(words))}
	for _, wd := range words {
		out.Words = append(out.Words, wordRefView{ID: wd.ID, Name: wd.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// getWord handles GET /words/{id}
func (s *Server) getWord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	wd, err := db.GetWord(s.db, id)
	if errors.Is(err, db.ErrNotFound) {
		writeNotFound(w)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wordView(r, wd))
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}
