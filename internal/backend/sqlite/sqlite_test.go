package sqlite

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/banux/tcg-kiosk/internal/backend/fs"
	"github.com/banux/tcg-kiosk/internal/i18n"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "pokemon/sets/en.json", `[{"id":"swshp"},{"id":"swsh1","name":"Sword & Shield","ptcgoCode":"SSH"}]`)
	writeFile(t, root, "pokemon/cards/swsh1.json", `[
		{"id":"swsh1-1","name":"Celebi V","types":["Grass"],"images":{"small":"s.png","large":"l.png"}}
	]`)
	writeFile(t, root, "one-piece/cards/op01.json", `[
		{"id":"OP01-001","name":"Zoro","color":["Red","Green"],"rarity":{"base":"L"},"images":{"normal":"z.png"}}
	]`)
	return root
}

func newBackend(t *testing.T, root, dbPath string) *Backend {
	t.Helper()
	b, err := New(root, dbPath, fs.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLiteBackend_EmptyDir(t *testing.T) {
	b := newBackend(t, t.TempDir(), "")
	cat, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if len(cat.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(cat.Groups))
	}
}

func TestSQLiteBackend_MatchesFilesystemBuild(t *testing.T) {
	root := buildTree(t)
	want, _ := fs.NewLoader(fs.Options{Logger: zerolog.Nop()}).Load(root)

	b := newBackend(t, root, "")
	got, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if !b.FromDisk() {
		t.Error("first snapshot should be built from disk")
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("disk-built snapshot differs from loader output")
	}

	// A second process against the same store restores without walking.
	other := newBackend(t, root, "")
	restored, err := other.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if other.FromDisk() {
		t.Error("expected the snapshot to be restored from the store")
	}
	if !reflect.DeepEqual(restored, want) {
		t.Errorf("restored snapshot differs:\n got %+v\nwant %+v", restored, want)
	}
}

func TestSQLiteBackend_StoreKeyedByModificationTime(t *testing.T) {
	root := buildTree(t)
	dbPath := filepath.Join(t.TempDir(), "snap.db")
	b := newBackend(t, root, dbPath)
	if _, err := b.Snapshot(); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	// Rewrite a card file but keep its modification time: the store wins.
	path := filepath.Join(root, "one-piece", "cards", "op01.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	writeFile(t, root, "one-piece/cards/op01.json", `[{"id":"OP01-002","name":"Nami","images":{"small":"n.png"}}]`)
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	b.Invalidate()
	cat, _ := b.Snapshot()
	if b.FromDisk() {
		t.Fatal("expected a store hit for an unchanged modification time")
	}
	g, err := cat.Group("one-piece")
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	if g.Cards[0].Name != "Zoro" {
		t.Errorf("expected stored card Zoro, got %q", g.Cards[0].Name)
	}

	// A newer file invalidates the stored snapshot.
	newer := writeFile(t, root, "riftbound/cards/ogn.json", `[{"id":"ogn-1","name":"Jinx","images":{"small":"j.png"}}]`)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(newer, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	b.Invalidate()
	cat, _ = b.Snapshot()
	if !b.FromDisk() {
		t.Fatal("expected a rebuild after the tree changed")
	}
	if len(cat.Groups) != 3 {
		t.Errorf("expected 3 groups, got %d", len(cat.Groups))
	}
	g, _ = cat.Group("one-piece")
	if g.Cards[0].Name != "Nami" {
		t.Errorf("expected rebuilt card Nami, got %q", g.Cards[0].Name)
	}
}

func TestSQLiteBackend_StoreKeyedByLoaderSettings(t *testing.T) {
	root := buildTree(t)
	dbPath := filepath.Join(t.TempDir(), "snap.db")
	if _, err := newBackend(t, root, dbPath).Snapshot(); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	opts := fs.Options{Translator: i18n.New("fr"), OverlayBaseURL: "/new", Logger: zerolog.Nop()}
	b, err := New(root, dbPath, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	got, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if !b.FromDisk() {
		t.Error("expected a rebuild when locale and overlay base change")
	}
	want, _ := fs.NewLoader(opts).Load(root)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot differs from loader output:\n got %+v\nwant %+v", got, want)
	}

	g, err := got.Group("one-piece")
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	if g.TypeLabel != "Couleur" {
		t.Errorf("type label: got %q, want %q", g.TypeLabel, "Couleur")
	}
	if g.OverlayImage != "/new/one-piece-card-back.png" {
		t.Errorf("overlay: got %q, want %q", g.OverlayImage, "/new/one-piece-card-back.png")
	}
	if d := g.Cards[0].Details[0]; d.Label != "Nom" {
		t.Errorf("detail label: got %q, want %q", d.Label, "Nom")
	}

	// The same settings again hit the rewritten store.
	again, err := New(root, dbPath, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { again.Close() })
	if _, err := again.Snapshot(); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if again.FromDisk() {
		t.Error("expected a store hit for unchanged settings")
	}
}
