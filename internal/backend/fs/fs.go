// Package fs implements the filesystem catalog backend for tcg-kiosk.
// It walks root/<game>/cards/**/*.json, normalizes every card record and
// keeps the resulting snapshot in memory until invalidated.
package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banux/tcg-kiosk/internal/catalog"
	"github.com/banux/tcg-kiosk/internal/i18n"
	"github.com/banux/tcg-kiosk/internal/normalize"
	"github.com/banux/tcg-kiosk/internal/schema"
	"github.com/banux/tcg-kiosk/internal/sets"
	"github.com/banux/tcg-kiosk/internal/textutil"
)

// Outcome is what happened to one card file during a load.
type Outcome string

const (
	OutcomeLoaded     Outcome = "loaded"
	OutcomeExcluded   Outcome = "excluded"
	OutcomeUnreadable Outcome = "unreadable"
	OutcomeMalformed  Outcome = "malformed"
)

// FileResult records the outcome of one card file.
type FileResult struct {
	Game    string  `json:"game"`
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`

	// Cards is the number of records that became cards.
	Cards int `json:"cards"`

	// Dropped is the number of records without a usable image.
	Dropped int `json:"dropped"`

	Err error `json:"-"`
}

// Report lists every card file visited by a load, in walk order.
type Report struct {
	Files []FileResult `json:"files"`
}

// Count returns the number of files with outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}

// Cards returns the number of cards loaded.
func (r Report) Cards() int {
	n := 0
	for _, f := range r.Files {
		n += f.Cards
	}
	return n
}

// Dropped returns the number of records dropped for lack of an image.
func (r Report) Dropped() int {
	n := 0
	for _, f := range r.Files {
		n += f.Dropped
	}
	return n
}

// Options configures a Loader.
type Options struct {
	// Translator renders labels. Nil means English.
	Translator *i18n.Translator

	// OverlayBaseURL is prepended to card-back overlay file names.
	OverlayBaseURL string

	Logger zerolog.Logger

	// OnFile, when set, is called before each card file is read.
	OnFile func(path string)
}

// Loader builds catalogs from a data root.
type Loader struct {
	sets        *sets.Resolver
	norm        *normalize.Normalizer
	tr          *i18n.Translator
	overlayBase string
	log         zerolog.Logger
	onFile      func(string)
}

// NewLoader returns a Loader with its own set metadata cache.
func NewLoader(opts Options) *Loader {
	tr := opts.Translator
	if tr == nil {
		tr = i18n.New("")
	}
	resolver := sets.NewResolver(opts.Logger)
	return &Loader{
		sets:        resolver,
		norm:        normalize.New(resolver, tr),
		tr:          tr,
		overlayBase: opts.OverlayBaseURL,
		log:         opts.Logger,
		onFile:      opts.OnFile,
	}
}

// Invalidate drops the cached set metadata.
func (l *Loader) Invalidate() {
	l.sets.Invalidate()
}

// formatVersion changes whenever normalization output changes shape.
const formatVersion = "1"

// Fingerprint identifies the settings that shape a built catalog besides
// the data root itself: output format, locale and overlay base URL.
func (l *Loader) Fingerprint() string {
	return formatVersion + "|" + l.tr.Tag().String() + "|" + l.overlayBase
}

// Load walks root and builds a catalog. Defects in the tree never abort the
// load: they are skipped, logged and listed in the Report.
func (l *Loader) Load(root string) (*catalog.Catalog, Report) {
	var rep Report
	cat := &catalog.Catalog{Groups: []catalog.GameGroup{}, LastModified: LastModified(root)}

	for _, slug := range gameDirs(root) {
		group, ok := l.loadGame(slug, filepath.Join(root, slug), &rep)
		if !ok {
			l.log.Debug().Str("game", slug).Msg("game has no cards")
			continue
		}
		cat.Groups = append(cat.Groups, group)
	}
	return cat, rep
}

// gameDirs returns the visible subdirectories of root in lexical order.
func gameDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.IsDir() {
			// Follow symlinked game directories.
			info, err := os.Stat(filepath.Join(root, e.Name()))
			if err != nil || !info.IsDir() {
				continue
			}
		}
		dirs = append(dirs, e.Name())
	}
	return dirs
}

func (l *Loader) loadGame(slug, dir string, rep *Report) (catalog.GameGroup, bool) {
	cardsDir := filepath.Join(dir, "cards")
	if info, err := os.Stat(cardsDir); err != nil || !info.IsDir() {
		return catalog.GameGroup{}, false
	}

	sch := schema.Lookup(slug)
	md := l.sets.Resolve(slug, dir)
	game := textutil.Humanize(slug)

	var cards []catalog.CardView
	_ = filepath.WalkDir(cardsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			rep.Files = append(rep.Files, FileResult{Game: slug, Path: path, Outcome: OutcomeUnreadable, Err: err})
			l.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		if l.onFile != nil {
			l.onFile(path)
		}

		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		setID := strings.ToLower(base)
		res := FileResult{Game: slug, Path: path}
		if !md.Permits(setID) {
			res.Outcome = OutcomeExcluded
			rep.Files = append(rep.Files, res)
			return nil
		}

		records, err := readCards(path)
		if err != nil {
			res.Outcome = OutcomeMalformed
			if errors.Is(err, errUnreadable) {
				res.Outcome = OutcomeUnreadable
			}
			res.Err = err
			rep.Files = append(rep.Files, res)
			l.log.Warn().Err(err).Str("path", path).Str("outcome", string(res.Outcome)).Msg("skipping card file")
			return nil
		}

		ctx := normalize.Context{
			Slug:    slug,
			Game:    game,
			SetName: l.sets.Label(slug, setID, base),
			Schema:  sch,
		}
		for _, raw := range records {
			view, ok := l.norm.Normalize(raw, ctx)
			if !ok {
				res.Dropped++
				continue
			}
			cards = append(cards, view)
			res.Cards++
		}
		if res.Dropped > 0 {
			l.log.Debug().Str("path", path).Int("dropped", res.Dropped).Msg("records without image")
		}
		res.Outcome = OutcomeLoaded
		rep.Files = append(rep.Files, res)
		return nil
	})

	if len(cards) == 0 {
		return catalog.GameGroup{}, false
	}

	options := make([]catalog.TypeOption, 0, len(sch.Filter.Options))
	for _, o := range sch.Filter.Options {
		options = append(options, catalog.TypeOption{Value: o.Value, Label: l.tr.T(o.Label)})
	}
	order := make([]string, len(md.Order))
	copy(order, md.Order)

	return catalog.GameGroup{
		Slug:                slug,
		Label:               game,
		TypeLabel:           l.tr.T(sch.Filter.Label),
		TypeOptions:         options,
		TypeMatchMode:       sch.Filter.Mode,
		TypeCaseInsensitive: sch.Filter.CaseInsensitive,
		OverlayImage:        schema.Overlay(slug, l.overlayBase),
		SetOrder:            order,
		Cards:               cards,
	}, true
}

var errUnreadable = errors.New("unreadable")

// readCards decodes a card file holding a JSON array of objects. Elements
// that are not objects are returned as nil records.
func readCards(path string) ([]catalog.RawCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnreadable, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode: trailing data after array")
	}
	if len(items) == 0 {
		return nil, errors.New("no records")
	}
	records := make([]catalog.RawCard, len(items))
	for i, item := range items {
		records[i], _ = item.(map[string]any)
	}
	return records, nil
}

// LastModified returns the newest modification time of any entry under
// root in Unix seconds, or 0 when root is missing or empty. Hidden entries
// such as the snapshot database are ignored.
func LastModified(root string) int64 {
	var latest int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if ts := info.ModTime().Unix(); ts > latest {
			latest = ts
		}
		return nil
	})
	return latest
}

// CountCardFiles returns the number of .json files under the cards
// directory of every game.
func CountCardFiles(root string) int {
	n := 0
	for _, slug := range gameDirs(root) {
		_ = filepath.WalkDir(filepath.Join(root, slug, "cards"), func(path string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
				n++
			}
			return nil
		})
	}
	return n
}

// Backend is a filesystem-based catalog source.
// The catalog is built on the first Snapshot call and kept until Invalidate.
type Backend struct {
	root   string
	loader *Loader
	log    zerolog.Logger

	mu     sync.Mutex
	cat    *catalog.Catalog
	report Report
}

// New creates a filesystem backend rooted at dir. Nothing is read until the
// first Snapshot call.
func New(dir string, opts Options) *Backend {
	return &Backend{root: dir, loader: NewLoader(opts), log: opts.Logger}
}

// Root returns the data root.
func (b *Backend) Root() string {
	return b.root
}

// Snapshot returns the memoized catalog, building it when needed.
func (b *Backend) Snapshot() (*catalog.Catalog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cat != nil {
		return b.cat, nil
	}
	start := time.Now()
	cat, rep := b.loader.Load(b.root)
	b.cat, b.report = cat, rep
	b.log.Info().
		Str("root", b.root).
		Int("games", len(cat.Groups)).
		Int("cards", cat.CardCount()).
		Int("skipped", rep.Count(OutcomeUnreadable)+rep.Count(OutcomeMalformed)).
		Dur("took", time.Since(start)).
		Msg("catalog loaded")
	return cat, nil
}

// Report returns the report of the last load.
func (b *Backend) Report() Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.report
}

// Invalidate drops the memoized catalog and set metadata.
func (b *Backend) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cat = nil
	b.report = Report{}
	b.loader.Invalidate()
}
