package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/geocoder89/benchorch/internal/domain/campaign"
	"github.com/geocoder89/benchorch/internal/domain/job"
	"github.com/geocoder89/benchorch/internal/domain/result"
	"github.com/geocoder89/benchorch/internal/domain/worker"
)

// snapshotDoc is the single JSON document persisted to disk, mirroring
// the in-memory store save for in-memory-only fields like the health
// monitor's last_heartbeat map.
type snapshotDoc struct {
	Workers   map[string]worker.Worker     `json:"workers"`
	Campaigns map[string]campaign.Campaign `json:"campaigns"`
	Jobs      map[string]job.Job           `json:"jobs"`
	Results   map[string]result.Result     `json:"results"`
	LastSaved time.Time                    `json:"last_saved"`
}

// Load reads the snapshot file if present. A missing file is a no-op
// (start fresh); a malformed file is logged and treated as empty, per
// spec — it never prevents startup.
func (s *Store) Load() {
	if s.path == "" {
		return
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("snapshot load failed, starting fresh", "path", s.path, "error", err)
		}
		return
	}

	var doc snapshotDoc
	if err := gojson.Unmarshal(data, &doc); err != nil {
		s.log.Warn("snapshot malformed, starting fresh", "path", s.path, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Workers != nil {
		s.workers = doc.Workers
	}
	if doc.Campaigns != nil {
		s.campaigns = doc.Campaigns
	}
	if doc.Jobs != nil {
		s.jobs = doc.Jobs
	}
	if doc.Results != nil {
		s.results = doc.Results
	}
	s.log.Info("snapshot loaded", "path", s.path, "workers", len(s.workers), "campaigns", len(s.campaigns), "jobs", len(s.jobs))
}

// ForceSave performs a synchronous snapshot write. The store guard is
// held only while serializing the in-memory state into the JSON document;
// the rename happens after release.
func (s *Store) ForceSave() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	doc := snapshotDoc{
		Workers:   s.workers,
		Campaigns: s.campaigns,
		Jobs:      s.jobs,
		Results:   s.results,
		LastSaved: time.Now().UTC(),
	}
	data, err := gojson.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".orchestrator-state-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// RunSnapshotLoop snapshots every interval until ctx is cancelled. A
// snapshot already in progress at shutdown completes; the next scheduled
// one is simply never started.
func (s *Store) RunSnapshotLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ForceSave(); err != nil {
				s.log.Warn("periodic snapshot failed", "error", err)
			}
		}
	}
}
