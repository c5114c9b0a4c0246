// Package server implements the HTTP server and routing for tcg-kiosk.
package server

import (
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/images"
	"github.com/banux/tcg-kiosk/internal/query"
)

// Options holds optional configuration for the Server.
type Options struct {
	// Translator localizes the UI table and the browse page.
	// If nil, English is used.
	Translator *i18n.Translator

	// Engine evaluates card queries.
	Engine query.Engine

	// PageSize is the default page size of /api/cards and the browse page.
	PageSize int

	// ImageProxy is handed to clients with every catalog snapshot.
	ImageProxy images.Proxy

	// TypeIcons maps type values to icon URLs for clients.
	TypeIcons map[string]string

	// RefreshInterval is the minimum time between two manual refreshes.
	// Zero disables the limit.
	RefreshInterval time.Duration

	Logger zerolog.Logger

	// WebFS holds index.html and the static/ directory.
	// If nil, the browse page and static assets are not served.
	WebFS fs.FS
}

// Server is the HTTP server for the card catalog.
type Server struct {
	router      *mux.Router
	source      catalog.Source
	invalidator catalog.Invalidator // optional; nil if the source doesn't memoize
	tr          *i18n.Translator
	limiter     *rate.Limiter // nil when refreshes are unlimited
	page        *template.Template
	opts        Options

	snapMu sync.Mutex
	snap   *snapshot
}

// New creates and configures a new Server over the given catalog source.
// If the source also implements catalog.Invalidator, POST /api/refresh is
// enabled. If opts.WebFS is non-nil, the browse page is served at /.
func New(src catalog.Source, opts Options) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = query.DefaultPageSize
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}
	s := &Server{
		router: mux.NewRouter(),
		source: src,
		tr:     opts.Translator,
		opts:   opts,
	}
	if s.tr == nil {
		s.tr = i18n.New("")
	}
	if inv, ok := src.(catalog.Invalidator); ok {
		s.invalidator = inv
	}
	if opts.RefreshInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(opts.RefreshInterval), 1)
	}
	if opts.WebFS != nil {
		s.page = template.Must(template.New("index.html").Funcs(s.templateFuncs()).ParseFS(opts.WebFS, "index.html"))
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler, delegating to the mux router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// registerRoutes sets up all endpoint routes.
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(requestID(s.opts.Logger), accessLog, recoverer)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// API: full catalog snapshot for the web client
	r.HandleFunc("/api/catalog", s.handleAPICatalog).Methods(http.MethodGet)

	// API: game selector entries without cards
	r.HandleFunc("/api/games", s.handleAPIGames).Methods(http.MethodGet)

	// API: one page of query results
	r.HandleFunc("/api/cards", s.handleAPICards).Methods(http.MethodGet)

	// API: drop the cached catalog and rebuild it
	r.HandleFunc("/api/refresh", s.handleAPIRefresh).Methods(http.MethodPost)

	if s.opts.WebFS == nil {
		r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		return
	}

	// Static assets (stylesheet, client script, card-back overlays).
	fileServer := http.FileServer(http.FS(s.opts.WebFS))
	r.PathPrefix("/static/").Handler(fileServer)

	// Server-rendered browse page.
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
}
