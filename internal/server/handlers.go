package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/banux/tcg-kiosk/internal/browser"
	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/images"
	"github.com/banux/tcg-kiosk/internal/query"
)

const (
	maxPageSize = 200

	// minCompressSize is the smallest body worth compressing.
	minCompressSize = 256
)

// snapshot is the encoded catalog payload, kept until the source hands out a
// different catalog.
type snapshot struct {
	cat  *catalog.Catalog
	body []byte
	etag string
}

// snapshotJSON is the body of GET /api/catalog.
type snapshotJSON struct {
	Games        []catalog.GameGroup `json:"games"`
	LastModified int64               `json:"lastModified"`
	I18n         map[string]string   `json:"i18n"`
	ImageProxy   images.Proxy        `json:"imageProxy"`
	TypeIcons    map[string]string   `json:"typeIcons"`
}

// gameJSON is a game selector entry of GET /api/games.
type gameJSON struct {
	Slug          string               `json:"slug"`
	Label         string               `json:"label"`
	TypeLabel     string               `json:"typeLabel"`
	TypeOptions   []catalog.TypeOption `json:"typeOptions"`
	TypeMatchMode catalog.MatchMode    `json:"typeMatchMode"`
	SetOptions    []string             `json:"setOptions"`
	OverlayImage  string               `json:"overlayImage,omitempty"`
	CardCount     int                  `json:"cardCount"`
}

// parseQuery extracts a catalog query from the request parameters. The page
// size falls back to defaultSize and is capped at maxPageSize.
func parseQuery(r *http.Request, defaultSize int) catalog.Query {
	v := r.URL.Query()
	page, _ := strconv.Atoi(v.Get("page"))
	size, _ := strconv.Atoi(v.Get("size"))
	if size <= 0 {
		size = defaultSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return catalog.Query{
		GameSlug:   strings.TrimSpace(v.Get("game")),
		SetName:    v.Get("set"),
		TypeValue:  v.Get("type"),
		SearchText: v.Get("q"),
		Page:       page,
		PageSize:   size,
	}
}

// pageLink builds a URL for the given page, preserving all other query
// parameters.
func pageLink(r *http.Request, page int) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	return r.URL.Path + "?" + q.Encode()
}

// acceptedEncoding picks the response encoding from Accept-Encoding,
// preferring br over gzip. It returns "" for identity.
func acceptedEncoding(r *http.Request) string {
	accepted := make(map[string]bool)
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(q, 64); err == nil && f == 0 {
				continue
			}
		}
		accepted[name] = true
	}
	switch {
	case accepted["br"]:
		return "br"
	case accepted["gzip"]:
		return "gzip"
	default:
		return ""
	}
}

// writeBody writes body with the given status, compressed when the client
// accepts it.
func writeBody(w http.ResponseWriter, r *http.Request, status int, contentType string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Add("Vary", "Accept-Encoding")

	enc := ""
	if len(body) >= minCompressSize {
		enc = acceptedEncoding(r)
	}
	switch enc {
	case "br":
		h.Set("Content-Encoding", "br")
		w.WriteHeader(status)
		bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
		_, _ = bw.Write(body)
		_ = bw.Close()
	case "gzip":
		h.Set("Content-Encoding", "gzip")
		w.WriteHeader(status)
		gw := gzip.NewWriter(w)
		_, _ = gw.Write(body)
		_ = gw.Close()
	default:
		h.Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

// writeJSON encodes v and writes it through writeBody.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}
	writeBody(w, r, status, "application/json", buf.Bytes())
}

// etagMatches reports whether an If-None-Match header value matches etag,
// using weak comparison.
func etagMatches(header, etag string) bool {
	etag = strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// handleHealth serves a simple health-check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// currentSnapshot returns the encoded snapshot of the source's catalog,
// re-encoding only when the source returns a new catalog.
func (s *Server) currentSnapshot() (*snapshot, error) {
	cat, err := s.source.Snapshot()
	if err != nil {
		return nil, err
	}

	s.snapMu.Lock()
	defer s.snapMu.Unlock()
	if s.snap != nil && s.snap.cat == cat {
		return s.snap, nil
	}

	payload := snapshotJSON{
		Games:        cat.Groups,
		LastModified: cat.LastModified,
		I18n:         s.tr.Table(),
		ImageProxy:   s.opts.ImageProxy,
		TypeIcons:    s.opts.TypeIcons,
	}
	if payload.Games == nil {
		payload.Games = []catalog.GameGroup{}
	}
	if payload.TypeIcons == nil {
		payload.TypeIcons = map[string]string{}
	}
	if payload.ImageProxy.Hosts == nil {
		payload.ImageProxy.Hosts = []string{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	s.snap = &snapshot{
		cat:  cat,
		body: body,
		etag: `W/"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`,
	}
	return s.snap, nil
}

// handleAPICatalog serves the full catalog snapshot. Clients revalidate with
// If-None-Match. The ETag is weak since identity, br and gzip bodies share it.
func (s *Server) handleAPICatalog(w http.ResponseWriter, r *http.Request) {
	snap, err := s.currentSnapshot()
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("catalog snapshot failed")
		http.Error(w, "catalog error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", snap.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if inm := r.Header.Get("If-None-Match"); inm != "" && etagMatches(inm, snap.etag) {
		w.Header().Add("Vary", "Accept-Encoding")
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeBody(w, r, http.StatusOK, "application/json", snap.body)
}

// handleAPIGames serves the game selector entries, without cards.
func (s *Server) handleAPIGames(w http.ResponseWriter, r *http.Request) {
	cat, err := s.source.Snapshot()
	if err != nil {
		http.Error(w, "catalog error", http.StatusInternalServerError)
		return
	}
	games := make([]gameJSON, 0, len(cat.Groups))
	for i := range cat.Groups {
		g := &cat.Groups[i]
		games = append(games, gameJSON{
			Slug:          g.Slug,
			Label:         g.Label,
			TypeLabel:     g.TypeLabel,
			TypeOptions:   query.TypeOptions(g),
			TypeMatchMode: g.TypeMatchMode,
			SetOptions:    query.SetOptions(g),
			OverlayImage:  g.OverlayImage,
			CardCount:     len(g.Cards),
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"games": games,
		"total": cat.CardCount(),
	})
}

// handleAPICards serves one page of query results.
// Supports ?game=&set=&type=&q= filters and ?page=&size= pagination.
// An unknown game yields 404.
func (s *Server) handleAPICards(w http.ResponseWriter, r *http.Request) {
	cat, err := s.source.Snapshot()
	if err != nil {
		http.Error(w, "catalog error", http.StatusInternalServerError)
		return
	}
	q := parseQuery(r, s.opts.PageSize)
	if q.GameSlug != "" {
		if _, err := cat.Group(q.GameSlug); errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "unknown game", http.StatusNotFound)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, s.opts.Engine.Evaluate(cat, q))
}

// handleAPIRefresh drops the cached catalog and rebuilds it.
// Returns 501 if the source does not memoize, 429 when called again before
// the refresh interval has passed, 500 on rebuild error.
func (s *Server) handleAPIRefresh(w http.ResponseWriter, r *http.Request) {
	if s.invalidator == nil {
		http.Error(w, "refresh not supported by this backend", http.StatusNotImplemented)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		retry := int(math.Ceil(s.opts.RefreshInterval.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		http.Error(w, "refresh rate limited", http.StatusTooManyRequests)
		return
	}
	s.invalidator.Invalidate()
	cat, err := s.source.Snapshot()
	if err != nil {
		http.Error(w, "refresh failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Int("games", len(cat.Groups)).
		Int("cards", cat.CardCount()).
		Msg("catalog refreshed")
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"games": len(cat.Groups),
		"cards": cat.CardCount(),
	})
}

// indexData is the browse page template input.
type indexData struct {
	View    browser.View
	T       map[string]string
	Lang    string
	Proxy   images.Proxy
	PrevURL string
	NextURL string
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"t":    func(key string, args ...any) string { return s.tr.T(key, args...) },
		"join": strings.Join,
	}
}

// handleIndex renders the browse page for the query in the URL. The page is
// driven by a browser.Controller, the same state machine the terminal kiosk
// uses.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cat, err := s.source.Snapshot()
	if err != nil {
		http.Error(w, "catalog error", http.StatusInternalServerError)
		return
	}
	q := parseQuery(r, s.opts.PageSize)
	status := http.StatusOK
	if q.GameSlug != "" {
		if _, err := cat.Group(q.GameSlug); err != nil {
			status = http.StatusNotFound
		}
	}

	ctrl := browser.New(cat, browser.Options{
		Engine:     s.opts.Engine,
		Translator: s.tr,
		PageSize:   q.PageSize,
	})
	ctrl.SelectGame(q.GameSlug)
	ctrl.SelectSet(q.SetName)
	ctrl.SelectType(q.TypeValue)
	ctrl.Search(q.SearchText)
	ctrl.GoToPage(q.Page)

	v := ctrl.View()
	data := indexData{
		View:  v,
		T:     s.tr.Table(),
		Lang:  s.tr.Tag().String(),
		Proxy: s.opts.ImageProxy,
	}
	if v.Result.Page > 1 {
		data.PrevURL = pageLink(r, v.Result.Page-1)
	}
	if v.Result.Page < v.Result.TotalPages {
		data.NextURL = pageLink(r, v.Result.Page+1)
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render browse page")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	writeBody(w, r, status, "text/html; charset=utf-8", buf.Bytes())
}
