package health

import (
	"testing"
	"time"

	"github.com/geocoder89/benchorch/internal/domain/worker"
	"github.com/geocoder89/benchorch/internal/store"
)

func newRegisteredWorker(t *testing.T, s *store.Store) worker.Worker {
	t.Helper()
	w, _ := s.RegisterWorker(worker.RegisterRequest{
		DeviceName:   "pixel-7",
		IPAddress:    "1.1.1.1",
		Capabilities: []string{"gpu"},
		DeviceInfo:   map[string]any{"udid": "abc"},
	})
	return w
}

func TestGetWorkerHealth_NoHeartbeatYetIsHealthy(t *testing.T) {
	s := store.New("", nil)
	w := newRegisteredWorker(t, s)
	m := New(s, time.Minute, time.Minute, nil)

	h, err := m.GetWorkerHealth(w.WorkerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.IsHealthy {
		t.Fatalf("a worker with no heartbeat yet should default to healthy")
	}
	if h.LastHeartbeat != nil {
		t.Fatalf("expected nil last_heartbeat before any heartbeat recorded")
	}
}

func TestRecordHeartbeat_RecoversFaultyWorker(t *testing.T) {
	s := store.New("", nil)
	w := newRegisteredWorker(t, s)
	s.UpdateWorkerStatus(w.WorkerID, worker.StatusFaulty)

	m := New(s, time.Minute, time.Minute, nil)
	prev, action, err := m.RecordHeartbeat(w.WorkerID)
	if err != nil {
		t.Fatalf("RecordHeartbeat error: %v", err)
	}
	if prev != worker.StatusFaulty {
		t.Fatalf("previousStatus = %s, want faulty", prev)
	}
	if action != "recovered" {
		t.Fatalf("action = %s, want recovered", action)
	}

	got, _ := s.GetWorker(w.WorkerID)
	if got.Status != worker.StatusActive {
		t.Fatalf("status after heartbeat recovery = %s, want active", got.Status)
	}
}

func TestRecordHeartbeat_UnknownWorker(t *testing.T) {
	s := store.New("", nil)
	m := New(s, time.Minute, time.Minute, nil)
	if _, _, err := m.RecordHeartbeat("no-such-worker"); err == nil {
		t.Fatalf("expected error for unknown worker")
	}
}

func TestCheckHeartbeats_MarksSilentWorkerFaulty(t *testing.T) {
	s := store.New("", nil)
	w := newRegisteredWorker(t, s)

	m := New(s, 10*time.Millisecond, time.Minute, nil)
	m.RecordHeartbeat(w.WorkerID)

	time.Sleep(30 * time.Millisecond)
	m.checkHeartbeats()

	got, _ := s.GetWorker(w.WorkerID)
	if got.Status != worker.StatusFaulty {
		t.Fatalf("status after heartbeat timeout = %s, want faulty", got.Status)
	}
}

func TestSummary_CountsByStatus(t *testing.T) {
	s := store.New("", nil)
	a, _ := s.RegisterWorker(worker.RegisterRequest{DeviceName: "a", IPAddress: "1.1.1.1", Capabilities: []string{"cpu"}, DeviceInfo: map[string]any{"udid": "a"}})
	b, _ := s.RegisterWorker(worker.RegisterRequest{DeviceName: "b", IPAddress: "1.1.1.2", Capabilities: []string{"cpu"}, DeviceInfo: map[string]any{"udid": "b"}})
	s.UpdateWorkerStatus(b.WorkerID, worker.StatusFaulty)
	_ = a

	m := New(s, time.Minute, time.Minute, nil)
	sum := m.Summary()
	if sum.Total != 2 || sum.Active != 1 || sum.Faulty != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
