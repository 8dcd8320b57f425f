package cleanup

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Prefixes of the temp files written by audio intake and retranscription downloads
var tempPrefixes = []string{"intake_", "episode_"}

// Service removes temp audio left behind by interrupted uploads and downloads
type Service struct {
	tempDir         string
	maxAge          time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a new cleanup service
func NewService(tempDir string, maxAge, cleanupInterval time.Duration) *Service {
	return &Service{
		tempDir:         tempDir,
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
	}
}

// Start runs one sweep and then sweeps periodically until ctx ends or Stop is called
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.Sweep()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-ctx.Done():
				log.Println("[INFO] Cleanup service stopped")
				return
			}
		}
	}()

	log.Printf("[INFO] Cleanup service started (interval: %v, max age: %v)", s.cleanupInterval, s.maxAge)
}

// Stop stops the cleanup service and waits for the sweeper to exit
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Sweep removes stale temp audio files and returns how many were deleted
func (s *Service) Sweep() int {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[ERROR] Cleanup read error: %v", err)
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isTempAudio(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if s.now().Sub(info.ModTime()) <= s.maxAge {
			continue
		}

		path := filepath.Join(s.tempDir, entry.Name())
		log.Printf("[DEBUG] Removing old temp file: %s", path)
		if err := os.Remove(path); err != nil {
			log.Printf("[WARN] Failed to remove temp file %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("[INFO] Removed %d stale temp file(s)", removed)
	}
	return removed
}

func isTempAudio(name string) bool {
	for _, prefix := range tempPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
