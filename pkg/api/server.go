package api

import (
	"database/sql"
	"embed"
	"html/template"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Transcriber renders the phonetic transcription served with a word.
type Transcriber interface {
	Transcription(phrase string) string
}

// Options wires a Server. DB and Transcriber are required.
type Options struct {
	DB          *sql.DB
	Transcriber Transcriber
	Gate        Gate
	// Media is the media root served under MediaURL when MediaURL is a path.
	Media    afero.Fs
	MediaURL string
	Log      logrus.FieldLogger
	// Registry receives the HTTP metrics and backs /metrics. Nil creates one.
	Registry *prometheus.Registry
}

// Server is the read-only phrasebook API.
type Server struct {
	db          *sql.DB
	transcriber Transcriber
	gate        Gate
	media       afero.Fs
	mediaURL    string
	log         logrus.FieldLogger
	registry    *prometheus.Registry
	metrics     *Metrics

	router  *mux.Router
	handler http.Handler
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	s := &Server{
		db:          opts.DB,
		transcriber: opts.Transcriber,
		gate:        opts.Gate,
		media:       opts.Media,
		mediaURL:    opts.MediaURL,
		log:         opts.Log,
		registry:    opts.Registry,
		router:      mux.NewRouter(),
	}
	if s.mediaURL == "" {
		s.mediaURL = "/media/"
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)

	s.setupRoutes()
	s.handler = recoveryMiddleware(s.log)(requestIDMiddleware(loggingMiddleware(s.log)(s.router)))
	return s
}

// setupRoutes configures all the API routes. List routes accept "/", no
// suffix or ".json"; detail routes accept an optional ".json".
func (s *Server) setupRoutes() {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { writeNotFound(w) })
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
	})
	s.router.Use(metricsMiddleware(s.metrics))

	s.router.HandleFunc("/", s.index).Methods("GET", "HEAD")
	s.router.HandleFunc("/health", s.health).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
	if s.media != nil && !strings.Contains(s.mediaURL, "://") {
		prefix := "/" + strings.Trim(s.mediaURL, "/") + "/"
		s.router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, s.serveMedia())).Methods("GET", "HEAD")
	}

	data := s.router.NewRoute().Subrouter()
	data.Use(s.gate.Middleware)
	data.HandleFunc(`/categories{suffix:(?:/|\.json)?}`, s.listCategories).Methods("GET")
	data.HandleFunc(`/levels{suffix:(?:/|\.json)?}`, s.listLevels).Methods("GET")
	data.HandleFunc(`/themes{suffix:(?:/|\.json)?}`, s.listThemes).Methods("GET")
	data.HandleFunc(`/themes/{id:[0-9]+}{suffix:(?:\.json)?}`, s.getTheme).Methods("GET")
	data.HandleFunc(`/words/{id:[0-9]+}{suffix:(?:\.json)?}`, s.getWord).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, struct{ Debug bool }{s.gate.Debug}); err != nil {
		s.log.WithError(err).Error("render index")
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.log.WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveMedia serves regular files from the media root. Directories are not listed.
func (s *Server) serveMedia() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		f, err := s.media.Open(name)
		if err != nil {
			writeNotFound(w)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			writeNotFound(w)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithField("request_id", RequestID(r.Context())).Error("request failed")
	writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
}
