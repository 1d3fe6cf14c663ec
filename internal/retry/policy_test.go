package retry

import (
	"testing"
	"time"
)

func TestCalculateDelay_ExponentialWithoutJitter(t *testing.T) {
	initial := 1 * time.Second
	multiplier := 2.0
	max := 300 * time.Second

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tc := range cases {
		got := CalculateDelay(tc.attempt, initial, multiplier, max)
		if got != tc.want {
			t.Fatalf("CalculateDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestCalculateDelay_CapsAtMaxDelay(t *testing.T) {
	got := CalculateDelay(10, 1*time.Second, 2.0, 300*time.Second)
	if got != 300*time.Second {
		t.Fatalf("CalculateDelay at high attempt = %v, want capped at 300s", got)
	}
}

func TestPolicy_GetDelay_NoJitterMatchesCalculateDelay(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, BackoffMultiplier: 2.0, MaxDelay: 300 * time.Second, Jitter: false}
	for attempt := 0; attempt < 4; attempt++ {
		want := CalculateDelay(attempt, p.InitialDelay, p.BackoffMultiplier, p.MaxDelay)
		if got := p.GetDelay(attempt); got != want {
			t.Fatalf("GetDelay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestPolicy_GetDelay_JitterStaysWithinBound(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, BackoffMultiplier: 2.0, MaxDelay: 300 * time.Second, Jitter: true}
	base := CalculateDelay(2, p.InitialDelay, p.BackoffMultiplier, p.MaxDelay)
	maxAllowed := base + time.Duration(0.25*float64(base))

	for i := 0; i < 50; i++ {
		got := p.GetDelay(2)
		if got < base {
			t.Fatalf("jittered delay %v is below base delay %v", got, base)
		}
		if got > maxAllowed {
			t.Fatalf("jittered delay %v exceeds 25%% bound %v", got, maxAllowed)
		}
	}
}

func TestPolicy_ShouldRetry(t *testing.T) {
	p := Policy{MaxAttempts: 3}
	if !p.ShouldRetry(1) {
		t.Fatalf("expected retry allowed at attempt 1 of 3")
	}
	if !p.ShouldRetry(2) {
		t.Fatalf("expected retry allowed at attempt 2 of 3")
	}
	if p.ShouldRetry(3) {
		t.Fatalf("expected retry budget exhausted at attempt 3 of 3")
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.MaxAttempts != 3 || p.BackoffMultiplier != 2.0 || !p.Jitter {
		t.Fatalf("unexpected default policy: %+v", p)
	}
}
