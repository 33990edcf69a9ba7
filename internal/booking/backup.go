package booking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// createBackup copies the pre-write store content into a timestamped file
// and prunes the oldest backups beyond the retention limit. The content is
// copied as-is, so backups share the encryption state of the source.
func (e *Engine) createBackup(content []byte) error {
	if err := os.MkdirAll(e.backupDir, 0o775); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Errorf("backup suffix: %w", err)
	}

	name := fmt.Sprintf("store-%s-%s.json", e.now().Format("20060102-150405"), hex.EncodeToString(suffix))
	if err := os.WriteFile(filepath.Join(e.backupDir, name), content, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	return e.pruneBackups()
}

// pruneBackups keeps the newest maxBackups files. The timestamped names
// sort chronologically, so a plain string sort finds the oldest.
func (e *Engine) pruneBackups() error {
	matches, err := filepath.Glob(filepath.Join(e.backupDir, "store-*.json"))
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	if len(matches) <= e.maxBackups {
		return nil
	}

	sort.Strings(matches)
	for _, stale := range matches[:len(matches)-e.maxBackups] {
		if err := os.Remove(stale); err != nil {
			return fmt.Errorf("prune backup %s: %w", filepath.Base(stale), err)
		}
	}
	return nil
}
