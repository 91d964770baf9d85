// Package watcher follows the token database on disk so that commits made
// by another process (for example the tokens CLI) reach a running TUI.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

type Service struct {
	dbPath   string
	logger   *slog.Logger
	onChange func(context.Context, string)
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

func New(dbPath string, logger *slog.Logger, onChange func(context.Context, string)) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fileWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Service{
		dbPath:   filepath.Clean(dbPath),
		logger:   logger,
		onChange: onChange,
		watcher:  fileWatcher,
		debounce: defaultDebounce,
	}, nil
}

func (s *Service) WithDebounce(debounce time.Duration) *Service {
	if debounce >= 0 {
		s.debounce = debounce
	}
	return s
}

// Start blocks until ctx is done. Bursts of events on the database files
// are collapsed into one onChange call per debounce window.
func (s *Service) Start(ctx context.Context) error {
	defer s.watcher.Close()

	dir := filepath.Dir(s.dbPath)
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch path %s: %w", dir, err)
	}
	s.logger.Info("store watcher started", "path", s.dbPath)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.logger.Info("store watcher stopped")
			return nil
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(event) {
				continue
			}
			pending = event.Name
			if s.debounce == 0 {
				s.notify(ctx, pending)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			s.notify(ctx, pending)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				s.logger.Error("file watcher error", "error", err)
			}
		}
	}
}

func (s *Service) notify(ctx context.Context, path string) {
	s.logger.Debug("store changed on disk", "path", path)
	if s.onChange != nil {
		s.onChange(ctx, path)
	}
}

func (s *Service) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	return s.matches(event.Name)
}

// matches reports whether path is the database or one of its sidecar files.
func (s *Service) matches(path string) bool {
	cleaned := filepath.Clean(path)
	switch cleaned {
	case s.dbPath, s.dbPath + "-wal", s.dbPath + "-journal":
		return true
	default:
		return false
	}
}
