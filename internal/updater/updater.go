// Package updater lets a running daemon replace its own binary from GitHub
// releases, with a backup of the previous version for rollback. The actual
// restart is delegated to the service manager: after a successful apply the
// process signals itself and systemd brings the new binary up.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/version"
)

// State of the update lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateAvailable   State = "available"
	StateApplying    State = "applying"
	StateRestarting  State = "restarting"
	StateError       State = "error"
	StateRolledBack  State = "rolled_back"
)

// Info describes the outcome of an update check.
type Info struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	UpdateAvailable bool      `json:"update_available"`
}

// Status is the updater's current state for the status API.
type Status struct {
	State           State      `json:"state"`
	CurrentVersion  string     `json:"current_version"`
	TargetVersion   string     `json:"target_version,omitempty"`
	Error           string     `json:"error,omitempty"`
	LastChecked     *time.Time `json:"last_checked,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	BackupVersion   string     `json:"backup_version,omitempty"`
}

// Service checks for, applies, and rolls back binary updates.
type Service struct {
	repository selfupdate.Repository
	updater    *selfupdate.Updater
	backups    *backupStore

	mu          sync.RWMutex
	state       State
	latest      *selfupdate.Release
	lastChecked *time.Time
	lastErr     error

	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// NewService builds the update service for the given GitHub repository slug
// ("owner/name"). When the binary's directory is not writable the service
// comes up disabled instead of failing, so the daemon still runs.
func NewService(repository string, prerelease bool) (*Service, error) {
	logger := logging.GetLogger("updater")

	if ok, reason := canReplaceSelf(); !ok {
		logger.Warn("Self-update disabled", "reason", reason)
		return &Service{enabled: false, disabledReason: reason, state: StateIdle, logger: logger}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backups, err := newBackupStore(logger)
	if err != nil {
		logger.Warn("Backup store unavailable, updates will not be reversible", "error", err)
	}

	return &Service{
		repository: selfupdate.ParseSlug(repository),
		updater:    up,
		backups:    backups,
		state:      StateIdle,
		enabled:    true,
		logger:     logger,
	}, nil
}

// canReplaceSelf verifies the executable's directory is writable.
func canReplaceSelf() (bool, string) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Sprintf("cannot determine executable path: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return false, fmt.Sprintf("cannot resolve executable symlinks: %v", err)
	}

	probe := filepath.Join(filepath.Dir(exe), ".signcast.update.probe")
	f, err := os.Create(probe)
	if err != nil {
		return false, fmt.Sprintf("no write permission in %s: %v", filepath.Dir(exe), err)
	}
	f.Close()
	os.Remove(probe)
	return true, ""
}

// Enabled reports whether self-update is operational.
func (s *Service) Enabled() bool { return s.enabled }

// DisabledReason explains a disabled service; empty when enabled.
func (s *Service) DisabledReason() string { return s.disabledReason }

// Check queries the repository for the latest release and compares it with
// the running version. Nothing is downloaded.
func (s *Service) Check(ctx context.Context) (*Info, error) {
	if !s.enabled {
		return nil, fmt.Errorf("self-update disabled: %s", s.disabledReason)
	}
	if !s.transition(StateChecking, StateIdle, StateAvailable, StateError) {
		return nil, fmt.Errorf("cannot check for updates while %s", s.currentState())
	}

	release, found, err := s.updater.DetectLatest(ctx, s.repository)
	if err != nil {
		s.fail(err)
		return nil, fmt.Errorf("update check failed: %w", err)
	}

	now := time.Now()
	s.mu.Lock()
	s.lastChecked = &now
	s.mu.Unlock()

	if !found {
		s.fail(fmt.Errorf("repository has no releases"))
		return nil, fmt.Errorf("repository has no releases")
	}

	current := version.Version
	// Dev builds always count as outdated
	newer := current == "dev" || release.GreaterThan(current)
	if !newer {
		s.transition(StateIdle)
		return &Info{CurrentVersion: current, LatestVersion: release.Version()}, nil
	}

	s.mu.Lock()
	s.latest = release
	s.mu.Unlock()
	s.transition(StateAvailable)

	return &Info{
		CurrentVersion:  current,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		UpdateAvailable: true,
	}, nil
}

// Apply downloads the detected release over the running binary, backing up
// the current one first, then triggers a restart.
func (s *Service) Apply(ctx context.Context) error {
	if !s.enabled {
		return fmt.Errorf("self-update disabled: %s", s.disabledReason)
	}

	if s.currentState() == StateIdle {
		info, err := s.Check(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return fmt.Errorf("no update available")
		}
	}

	if !s.transition(StateApplying, StateAvailable) {
		return fmt.Errorf("cannot apply update while %s", s.currentState())
	}

	if s.backups != nil {
		if err := s.backups.save(); err != nil {
			s.fail(err)
			return fmt.Errorf("backup failed: %w", err)
		}
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		s.fail(err)
		return fmt.Errorf("cannot locate executable: %w", err)
	}

	s.mu.RLock()
	release := s.latest
	s.mu.RUnlock()

	if err := s.updater.UpdateTo(ctx, release, exe); err != nil {
		s.fail(err)
		s.autoRollback()
		return fmt.Errorf("update failed: %w", err)
	}

	s.transition(StateRestarting)
	s.logger.Info("Update applied, restarting", "version", release.Version())
	s.scheduleRestart()
	return nil
}

// Rollback restores the backed-up binary and triggers a restart.
func (s *Service) Rollback(context.Context) error {
	if !s.enabled {
		return fmt.Errorf("self-update disabled: %s", s.disabledReason)
	}
	if s.backups == nil || !s.backups.available() {
		return fmt.Errorf("no backup available")
	}
	if err := s.backups.restore(); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	s.transition(StateRolledBack)
	s.logger.Info("Rollback complete, restarting")
	s.scheduleRestart()
	return nil
}

// GetStatus reports the updater state for the API.
func (s *Service) GetStatus() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := &Status{
		State:          s.state,
		CurrentVersion: version.Version,
		LastChecked:    s.lastChecked,
	}
	if s.latest != nil {
		status.TargetVersion = s.latest.Version()
	}
	if s.lastErr != nil {
		status.Error = s.lastErr.Error()
	}
	if s.backups != nil {
		status.BackupAvailable = s.backups.available()
		status.BackupVersion = s.backups.version()
	}
	return status
}

func (s *Service) transition(to State, validFrom ...State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(validFrom) > 0 && !slices.Contains(validFrom, s.state) {
		return false
	}
	s.logger.Debug("Updater state transition", "from", s.state, "to", to)
	s.state = to
	s.lastErr = nil
	return true
}

func (s *Service) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.state = StateError
	s.mu.Unlock()
}

func (s *Service) autoRollback() {
	if s.backups == nil || !s.backups.available() {
		s.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := s.backups.restore(); err != nil {
		s.logger.Error("Automatic rollback failed", "error", err)
		return
	}
	s.transition(StateRolledBack)
	s.logger.Info("Automatic rollback complete")
}

// scheduleRestart signals the process shortly after returning, leaving time
// for the triggering API response to flush. systemd restarts the unit.
func (s *Service) scheduleRestart() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		proc, err := os.FindProcess(os.Getpid())
		if err != nil {
			s.logger.Error("Cannot find own process", "error", err)
			return
		}
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			s.logger.Error("Failed to signal restart", "error", err)
		}
	}()
}
