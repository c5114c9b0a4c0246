// Package sets reads a game's optional set index (sets/en.json) and answers
// set name, code and visibility questions for the loader and normalizer.
package sets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/banux/tcg-kiosk/internal/schema"
	"github.com/banux/tcg-kiosk/internal/textutil"
)

// IndexPath is the set index location relative to a game directory.
const IndexPath = "sets/en.json"

// Metadata is what a game's set index declares.
type Metadata struct {
	// Names maps lowercased set ids to display names.
	Names map[string]string

	// Codes maps lowercased set ids to upper-cased set codes.
	Codes map[string]string

	// Allowed is the set of visible ids. Nil means every set is visible; an
	// empty non-nil map hides every set.
	Allowed map[string]bool

	// Order lists the display names of the allowed sets in index order.
	Order []string
}

// Permits reports whether setID may be shown.
func (m Metadata) Permits(setID string) bool {
	if m.Allowed == nil {
		return true
	}
	return m.Allowed[strings.ToLower(setID)]
}

func empty() Metadata {
	return Metadata{Names: map[string]string{}, Codes: map[string]string{}, Order: []string{}}
}

// Resolver caches set metadata per lowercased game slug.
// It is safe for concurrent use.
type Resolver struct {
	log zerolog.Logger

	mu    sync.Mutex
	cache map[string]Metadata
}

// NewResolver returns an empty Resolver.
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{log: log, cache: make(map[string]Metadata)}
}

// Resolve returns the metadata of the game at dir, reading its set index on
// first use. A missing or unusable index yields empty metadata.
func (r *Resolver) Resolve(slug, dir string) Metadata {
	key := strings.ToLower(slug)

	r.mu.Lock()
	defer r.mu.Unlock()
	if md, ok := r.cache[key]; ok {
		return md
	}
	md, err := readIndex(filepath.Join(dir, IndexPath), schema.Lookup(slug).SetSentinel())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.Debug().Str("game", slug).Msg("no set index")
		} else {
			r.log.Debug().Err(err).Str("game", slug).Msg("set index ignored")
		}
		md = empty()
	}
	r.cache[key] = md
	return md
}

// Label returns the display name of setID for a game: the indexed name, else
// the humanized fallback, else the humanized id. Resolve must have been
// called for the game for indexed names to be found.
func (r *Resolver) Label(slug, setID, fallback string) string {
	id := strings.ToLower(setID)
	r.mu.Lock()
	name := r.cache[strings.ToLower(slug)].Names[id]
	r.mu.Unlock()
	if name != "" {
		return name
	}
	if fallback != "" {
		return textutil.Humanize(fallback)
	}
	return textutil.Humanize(id)
}

// Code returns the indexed code of setID, or "".
func (r *Resolver) Code(slug, setID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[strings.ToLower(slug)].Codes[strings.ToLower(setID)]
}

// Invalidate drops every cached index.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]Metadata)
	r.mu.Unlock()
}

// readIndex parses a set index. Entries that are not objects or lack an id
// are skipped.
func readIndex(path, sentinel string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return Metadata{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(entries) == 0 {
		return Metadata{}, fmt.Errorf("parse %s: empty index", path)
	}

	md := empty()
	var ids []string
	threshold := -1
	for _, raw := range entries {
		var entry map[string]any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&entry); err != nil || entry == nil {
			continue
		}
		id := strings.ToLower(scalar(entry["id"]))
		if id == "" {
			continue
		}
		ids = append(ids, id)

		name := scalar(entry["name"])
		if name == "" {
			name = textutil.Humanize(id)
		}
		md.Names[id] = name
		if code := scalar(entry["ptcgoCode"]); code != "" {
			md.Codes[id] = strings.ToUpper(code)
		}
		if sentinel != "" && id == sentinel {
			threshold = len(ids) - 1
		}
	}

	if threshold >= 0 {
		md.Allowed = make(map[string]bool)
		for _, id := range ids[threshold+1:] {
			md.Allowed[id] = true
			md.Order = append(md.Order, md.Names[id])
		}
	}
	return md, nil
}

// scalar renders a JSON string or number as trimmed text. Other values
// yield "".
func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	default:
		return ""
	}
}
