// Package sqlite implements a SQLite-backed catalog backend for tcg-kiosk.
// It persists the normalized catalog so that a restart against an unchanged
// data root skips walking and parsing the card files.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/banux/tcg-kiosk/internal/backend/fs"
	"github.com/banux/tcg-kiosk/internal/catalog"
)

const dbFilename = ".catalog.db"

// Backend is a SQLite-backed catalog source.
type Backend struct {
	root   string
	loader *fs.Loader
	db     *sql.DB
	log    zerolog.Logger

	mu       sync.Mutex
	cat      *catalog.Catalog
	report   fs.Report
	fromDisk bool
}

// New opens (or creates) the snapshot database at dbPath and returns the
// Backend. An empty dbPath uses {dir}/.catalog.db.
func New(dir, dbPath string, opts fs.Options) (*Backend, error) {
	if dbPath == "" {
		dbPath = filepath.Join(dir, dbFilename)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", dbPath, err)
	}

	// WAL mode for concurrent reads; foreign keys for cascade deletes.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	b := &Backend{root: dir, loader: fs.NewLoader(opts), db: db, log: opts.Logger}
	if err := b.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return b, nil
}

// Close releases database resources.
func (b *Backend) Close() error {
	return b.db.Close()
}

// createSchema creates the tables if they don't exist yet.
func (b *Backend) createSchema() error {
	_, err := b.db.Exec(`
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
    slug                  TEXT PRIMARY KEY,
    position              INTEGER NOT NULL,
    label                 TEXT NOT NULL DEFAULT '',
    type_label            TEXT NOT NULL DEFAULT '',
    type_options          TEXT NOT NULL DEFAULT '[]',
    type_match_mode       TEXT NOT NULL DEFAULT 'exact',
    type_case_insensitive INTEGER NOT NULL DEFAULT 0,
    overlay_image         TEXT NOT NULL DEFAULT '',
    set_order             TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS cards (
    game_slug      TEXT NOT NULL REFERENCES games(slug) ON DELETE CASCADE,
    position       INTEGER NOT NULL,
    id             TEXT NOT NULL DEFAULT '',
    name           TEXT NOT NULL DEFAULT '',
    game           TEXT NOT NULL DEFAULT '',
    set_name       TEXT NOT NULL DEFAULT '',
    image_url      TEXT NOT NULL,
    image_full_url TEXT NOT NULL DEFAULT '',
    image_srcset   TEXT NOT NULL DEFAULT '',
    image_sizes    TEXT NOT NULL DEFAULT '',
    type_values    TEXT NOT NULL DEFAULT '[]',
    details        TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (game_slug, position)
);
`)
	return err
}

// Snapshot returns the memoized catalog. When nothing is memoized, the
// stored snapshot is used if it was built from a tree with the same
// modification time and the same loader settings; otherwise the tree is loaded and the store replaced.
func (b *Backend) Snapshot() (*catalog.Catalog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cat != nil {
		return b.cat, nil
	}

	start := time.Now()
	lastModified := fs.LastModified(b.root)
	cat, err := b.loadStored(lastModified)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if cat != nil {
		b.cat, b.report, b.fromDisk = cat, fs.Report{}, false
		b.log.Info().
			Int64("last_modified", lastModified).
			Int("games", len(cat.Groups)).
			Int("cards", cat.CardCount()).
			Dur("took", time.Since(start)).
			Msg("catalog restored from snapshot store")
		return cat, nil
	}

	cat, rep := b.loader.Load(b.root)
	if err := b.store(cat); err != nil {
		// The freshly built catalog is still served.
		b.log.Error().Err(err).Msg("persist snapshot")
	}
	b.cat, b.report, b.fromDisk = cat, rep, true
	b.log.Info().
		Int64("last_modified", cat.LastModified).
		Int("games", len(cat.Groups)).
		Int("cards", cat.CardCount()).
		Dur("took", time.Since(start)).
		Msg("catalog loaded")
	return cat, nil
}

// Report returns the report of the last load. It is empty when the
// catalog was restored from the store.
func (b *Backend) Report() fs.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.report
}

// FromDisk reports whether the memoized catalog was built by walking the
// data root rather than restored from the store.
func (b *Backend) FromDisk() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fromDisk
}

// Invalidate drops the memoized catalog and set metadata. The next
// Snapshot call re-validates the store against the data root.
func (b *Backend) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cat = nil
	b.report = fs.Report{}
	b.loader.Invalidate()
}

// loadStored returns the stored catalog, or nil when the store is empty or
// was built for a different modification time or loader fingerprint.
func (b *Backend) loadStored(lastModified int64) (*catalog.Catalog, error) {
	var value, fingerprint string
	err := b.db.QueryRow(`
SELECT m.value, COALESCE(f.value, '')
FROM meta m LEFT JOIN meta f ON f.key = 'fingerprint'
WHERE m.key = 'last_modified'`).Scan(&value, &fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fingerprint != b.loader.Fingerprint() {
		b.log.Debug().Str("stored", fingerprint).Msg("snapshot store built with other settings")
		return nil, nil
	}
	stored, err := strconv.ParseInt(value, 10, 64)
	if err != nil || stored != lastModified {
		return nil, nil
	}

	rows, err := b.db.Query(`
SELECT slug, label, type_label, type_options, type_match_mode,
       type_case_insensitive, overlay_image, set_order
FROM games ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cat := &catalog.Catalog{Groups: []catalog.GameGroup{}, LastModified: stored}
	index := make(map[string]int)
	for rows.Next() {
		var (
			g               catalog.GameGroup
			options, order  string
			mode            string
			caseInsensitive int
		)
		if err := rows.Scan(&g.Slug, &g.Label, &g.TypeLabel, &options, &mode,
			&caseInsensitive, &g.OverlayImage, &order); err != nil {
			return nil, err
		}
		g.TypeMatchMode = catalog.MatchMode(mode)
		g.TypeCaseInsensitive = caseInsensitive != 0
		if err := json.Unmarshal([]byte(options), &g.TypeOptions); err != nil {
			return nil, fmt.Errorf("game %s: type options: %w", g.Slug, err)
		}
		if err := json.Unmarshal([]byte(order), &g.SetOrder); err != nil {
			return nil, fmt.Errorf("game %s: set order: %w", g.Slug, err)
		}
		index[g.Slug] = len(cat.Groups)
		cat.Groups = append(cat.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cardRows, err := b.db.Query(`
SELECT game_slug, id, name, game, set_name, image_url, image_full_url,
       image_srcset, image_sizes, type_values, details
FROM cards ORDER BY game_slug, position`)
	if err != nil {
		return nil, err
	}
	defer cardRows.Close()

	for cardRows.Next() {
		var (
			slug           string
			c              catalog.CardView
			types, details string
		)
		if err := cardRows.Scan(&slug, &c.ID, &c.Name, &c.Game, &c.Set, &c.ImageURL,
			&c.ImageFullURL, &c.ImageSrcset, &c.ImageSizes, &types, &details); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(types), &c.TypeValues); err != nil {
			return nil, fmt.Errorf("card %s: type values: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(details), &c.Details); err != nil {
			return nil, fmt.Errorf("card %s: details: %w", c.ID, err)
		}
		i, ok := index[slug]
		if !ok {
			continue
		}
		cat.Groups[i].Cards = append(cat.Groups[i].Cards, c)
	}
	return cat, cardRows.Err()
}

// store replaces the stored snapshot with cat in a single transaction.
func (b *Backend) store(cat *catalog.Catalog) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM cards; DELETE FROM games;`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	gameStmt, err := tx.Prepare(`
INSERT INTO games (slug, position, label, type_label, type_options, type_match_mode,
                   type_case_insensitive, overlay_image, set_order)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer gameStmt.Close()

	cardStmt, err := tx.Prepare(`
INSERT INTO cards (game_slug, position, id, name, game, set_name, image_url,
                   image_full_url, image_srcset, image_sizes, type_values, details)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	for pos, g := range cat.Groups {
		options, _ := json.Marshal(nonNil(g.TypeOptions))
		order, _ := json.Marshal(nonNil(g.SetOrder))
		if _, err := gameStmt.Exec(g.Slug, pos, g.Label, g.TypeLabel, string(options),
			string(g.TypeMatchMode), boolToInt(g.TypeCaseInsensitive), g.OverlayImage, string(order)); err != nil {
			return fmt.Errorf("insert game %s: %w", g.Slug, err)
		}
		for i, c := range g.Cards {
			types, _ := json.Marshal(nonNil(c.TypeValues))
			details, _ := json.Marshal(nonNil(c.Details))
			if _, err := cardStmt.Exec(g.Slug, i, c.ID, c.Name, c.Game, c.Set, c.ImageURL,
				c.ImageFullURL, c.ImageSrcset, c.ImageSizes, string(types), string(details)); err != nil {
				return fmt.Errorf("insert card %s/%s: %w", g.Slug, c.ID, err)
			}
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('last_modified', ?), ('fingerprint', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatInt(cat.LastModified, 10), b.loader.Fingerprint()); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return tx.Commit()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
