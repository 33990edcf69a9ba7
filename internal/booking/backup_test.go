package booking

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestBackupCreatedOnRewrite(t *testing.T) {
	dir := t.TempDir()
	e := NewEngine(EngineConfig{Path: filepath.Join(dir, "store.json")})

	doc, err := e.Load()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Seeding an empty file makes no backup; the first rewrite does.
	if names := backupNames(t, e.backupDir); len(names) != 0 {
		t.Fatalf("no backup expected before the first rewrite, got %v", names)
	}

	if err := e.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	names := backupNames(t, e.backupDir)
	if len(names) != 1 {
		t.Fatalf("want 1 backup after rewrite, got %v", names)
	}
	if !strings.HasPrefix(names[0], "store-") || !strings.HasSuffix(names[0], ".json") {
		t.Fatalf("unexpected backup name %q", names[0])
	}
}

func TestBackupRetention(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	e := NewEngine(EngineConfig{
		Path:       filepath.Join(dir, "store.json"),
		MaxBackups: 5,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})

	doc, err := e.Load()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	for i := 0; i < 12; i++ {
		if err := e.Save(doc); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	names := backupNames(t, e.backupDir)
	if len(names) != 5 {
		t.Fatalf("want exactly 5 backups retained, got %d: %v", len(names), names)
	}

	// Timestamped names sort chronologically, so the survivors must be the
	// newest ones: the oldest retained backup is from save 8 of 12.
	sort.Strings(names)
	if names[0] < "store-20250602-080009" {
		t.Fatalf("oldest surviving backup %q is older than expected", names[0])
	}
}

func backupNames(t *testing.T, backupDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(backupDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
