package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/signcast/signcast/internal/version"
)

const (
	backupBinaryName = "signcast.backup"
	backupMetaName   = "backup.json"
)

type backupMeta struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExecPath  string    `json:"exec_path"`
}

// backupStore keeps one copy of the previous binary plus metadata under the
// user cache dir, enough to undo the most recent update.
type backupStore struct {
	mu     sync.RWMutex
	dir    string
	meta   *backupMeta
	logger *slog.Logger
}

func newBackupStore(logger *slog.Logger) (*backupStore, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache dir: %w", err)
	}

	dir := filepath.Join(base, "signcast", "backup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	store := &backupStore{dir: dir, logger: logger}
	store.load()
	return store, nil
}

// load picks up metadata from a previous run; missing or stale metadata
// just leaves the store empty.
func (b *backupStore) load() {
	data, err := os.ReadFile(filepath.Join(b.dir, backupMetaName))
	if err != nil {
		return
	}

	var meta backupMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		b.logger.Warn("Unreadable backup metadata", "error", err)
		return
	}
	if _, err := os.Stat(filepath.Join(b.dir, backupBinaryName)); err != nil {
		b.logger.Warn("Backup metadata present but binary missing")
		return
	}

	b.mu.Lock()
	b.meta = &meta
	b.mu.Unlock()
	b.logger.Info("Found existing binary backup", "version", meta.Version)
}

// save copies the running binary into the store.
func (b *backupStore) save() error {
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	if err := copyFile(exe, filepath.Join(b.dir, backupBinaryName), 0o755); err != nil {
		return fmt.Errorf("failed to copy binary: %w", err)
	}

	meta := backupMeta{Version: version.Version, CreatedAt: time.Now(), ExecPath: exe}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal backup metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, backupMetaName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup metadata: %w", err)
	}

	b.mu.Lock()
	b.meta = &meta
	b.mu.Unlock()
	b.logger.Info("Binary backed up", "version", meta.Version)
	return nil
}

// restore copies the backup over the executable path recorded at save time.
func (b *backupStore) restore() error {
	b.mu.RLock()
	meta := b.meta
	b.mu.RUnlock()

	if meta == nil {
		return fmt.Errorf("no backup available")
	}
	if err := copyFile(filepath.Join(b.dir, backupBinaryName), meta.ExecPath, 0o755); err != nil {
		return fmt.Errorf("failed to restore binary: %w", err)
	}

	b.logger.Info("Binary restored from backup", "version", meta.Version)
	return nil
}

func (b *backupStore) available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.meta != nil
}

func (b *backupStore) version() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.meta == nil {
		return ""
	}
	return b.meta.Version
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
