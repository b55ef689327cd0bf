package services

import (
	"os"
	"path/filepath"
	"time"

	"botgate/internal/config"
	"botgate/internal/session"

	"go.uber.org/zap"
)

// sessionIdleAge after which an abandoned verification session is dropped.
// Generous compared to the challenge freshness window so a slow client never
// loses state mid-flow.
const sessionIdleAge = time.Hour

// Cleanup periodically removes generated challenge assets past their max age
// and sweeps abandoned sessions. Everything here is best-effort; failures
// are logged and never touch in-flight verification state.
type Cleanup struct {
	log   *zap.Logger
	store *session.Store
}

func NewCleanup(log *zap.Logger, store *session.Store) *Cleanup {
	return &Cleanup{log: log, store: store}
}

// Start runs the cleanup loop in a goroutine.
func (s *Cleanup) Start() {
	s.log.Info("Starting cleanup scheduler...")
	go func() {
		interval := config.Conf.Assets.SweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			<-ticker.C
			s.sweepAssets()
			s.sweepSessions()
		}
	}()
}

func (s *Cleanup) sweepAssets() {
	dir := config.Conf.Assets.Directory
	maxAge := config.Conf.Assets.MaxAge
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Directory may not exist until the asset generator first runs.
		s.log.Debug("Asset sweep skipped", zap.Error(err))
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			s.log.Warn("Failed to remove stale asset", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Debug("Swept stale assets", zap.Int("removed", removed))
	}
}

func (s *Cleanup) sweepSessions() {
	if removed := s.store.Sweep(sessionIdleAge); removed > 0 {
		s.log.Debug("Swept abandoned sessions", zap.Int("removed", removed))
	}
}
