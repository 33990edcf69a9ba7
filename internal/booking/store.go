package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

var (
	// ErrLockTimeout means the exclusive store lock could not be acquired
	// within the configured budget. Retryable: callers should answer
	// "service busy" with a Retry-After hint.
	ErrLockTimeout = errors.New("store lock timeout")

	// ErrPersist covers serialization and write failures during save.
	ErrPersist = errors.New("store persist failed")

	// ErrCorruptStore means the store file holds undecodable JSON.
	ErrCorruptStore = errors.New("store file corrupt")

	// ErrNoEncryptionKey means the file is marked encrypted but no key is
	// configured. The engine fails closed rather than treating ciphertext
	// as plaintext.
	ErrNoEncryptionKey = errors.New("store encrypted but no key configured")

	// ErrDecryptFailed means decryption or authentication of the store
	// payload failed, typically a wrong key.
	ErrDecryptFailed = errors.New("store decryption failed")
)

// Store is the persistence handle the domain service writes through.
type Store interface {
	// Load reads the current document. Readers take no lock; a torn read
	// during a concurrent rewrite is an accepted tradeoff at this scale.
	Load() (*Document, error)

	// Save persists the document under the exclusive store lock.
	Save(doc *Document) error

	// Update runs fn on a freshly loaded document inside the locked
	// critical section and persists the result. Conflict re-validation
	// belongs in fn.
	Update(fn func(doc *Document) error) (*Document, error)
}

// EngineConfig configures a file-backed store engine.
type EngineConfig struct {
	// Path of the store file, e.g. data/store.json.
	Path string

	// BackupDir defaults to <dir of Path>/backups.
	BackupDir string

	// Key is the 32-byte encryption key; nil keeps the store plaintext.
	Key []byte

	// MaxBackups to retain, default 30.
	MaxBackups int

	// LockTimeout bounds lock acquisition, default 1.8s.
	LockTimeout time.Duration

	// LockPoll is the retry interval while the lock is held elsewhere,
	// default 25ms.
	LockPoll time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// Engine persists the document to a single optionally-encrypted JSON file.
// Writers serialize through an exclusive file lock; every save snapshots the
// pre-write content into a rotated backup first.
type Engine struct {
	path       string
	backupDir  string
	key        []byte
	maxBackups int

	lockTimeout time.Duration
	lockPoll    time.Duration

	log *zap.Logger
	now func() time.Time
}

var _ Store = (*Engine)(nil)

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		path:        cfg.Path,
		backupDir:   cfg.BackupDir,
		key:         cfg.Key,
		maxBackups:  cfg.MaxBackups,
		lockTimeout: cfg.LockTimeout,
		lockPoll:    cfg.LockPoll,
		log:         cfg.Logger,
		now:         cfg.Now,
	}
	if e.backupDir == "" {
		e.backupDir = filepath.Join(filepath.Dir(e.path), "backups")
	}
	if e.maxBackups <= 0 {
		e.maxBackups = 30
	}
	if e.lockTimeout <= 0 {
		e.lockTimeout = 1800 * time.Millisecond
	}
	if e.lockPoll <= 0 {
		e.lockPoll = 25 * time.Millisecond
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

func (e *Engine) Load() (*Document, error) {
	if err := e.ensureFile(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	return e.decode(raw)
}

func (e *Engine) Save(doc *Document) error {
	lock, err := e.acquireLock()
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			e.log.Warn("release store lock", zap.Error(unlockErr))
		}
	}()

	return e.writeLocked(doc)
}

func (e *Engine) Update(fn func(doc *Document) error) (*Document, error) {
	if err := e.ensureFile(); err != nil {
		return nil, err
	}

	lock, err := e.acquireLock()
	if err != nil {
		return nil, err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			e.log.Warn("release store lock", zap.Error(unlockErr))
		}
	}()

	raw, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	doc, err := e.decode(raw)
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return nil, err
	}

	if err := e.writeLocked(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// acquireLock takes the exclusive store lock, polling until the timeout.
func (e *Engine) acquireLock() (*flock.Flock, error) {
	lock := flock.New(e.path)

	ctx, cancel := context.WithTimeout(context.Background(), e.lockTimeout)
	defer cancel()

	ok, err := lock.TryLockContext(ctx, e.lockPoll)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	if !ok {
		return nil, ErrLockTimeout
	}
	return lock, nil
}

// writeLocked snapshots the current file into a backup, then truncates and
// rewrites it with the re-encoded document. Caller holds the lock.
func (e *Engine) writeLocked(doc *Document) error {
	if prev, err := os.ReadFile(e.path); err == nil && len(prev) > 0 {
		if backupErr := e.createBackup(prev); backupErr != nil {
			e.log.Warn("store backup failed", zap.Error(backupErr))
		}
	}

	doc.Normalize()
	doc.RebuildIndex()
	doc.UpdatedAt = e.now().Format(time.RFC3339)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}

	out, err := encryptPayload(data, e.key)
	if err != nil {
		return fmt.Errorf("%w: encrypt: %v", ErrPersist, err)
	}

	f, err := os.OpenFile(e.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open: %v", ErrPersist, err)
	}
	if _, err := f.Write(out); err != nil {
		f.Close()
		return fmt.Errorf("%w: write: %v", ErrPersist, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: sync: %v", ErrPersist, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrPersist, err)
	}
	return nil
}

func (e *Engine) decode(raw []byte) (*Document, error) {
	plain, err := decryptPayload(raw, e.key)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if err := json.Unmarshal(plain, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	doc.Normalize()
	return doc, nil
}

// ensureFile seeds an empty document on first run.
func (e *Engine) ensureFile() error {
	if _, err := os.Stat(e.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat store file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0o775); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	e.log.Info("seeding empty store", zap.String("path", e.path))
	return e.writeLocked(NewDocument(e.now()))
}
