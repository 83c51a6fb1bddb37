package llm

import (
	"testing"
	"time"
)

func TestHealthTracker_UnknownProviderIsAvailable(t *testing.T) {
	ht := NewHealthTracker(3, 5*time.Second)
	if !ht.IsAvailable("gemini") {
		t.Error("expected a provider with no history to be available")
	}
}

func TestHealthTracker_ProvidersTrippedIndependently(t *testing.T) {
	ht := NewHealthTracker(2, time.Minute)

	ht.RecordFailure("gemini")
	ht.RecordFailure("gemini")
	ht.RecordFailure("openai")

	if ht.IsAvailable("gemini") {
		t.Error("expected gemini circuit to be open after 2 failures")
	}
	if !ht.IsAvailable("openai") {
		t.Error("expected openai to stay available after 1 failure")
	}
}

func TestHealthTracker_Status(t *testing.T) {
	ht := NewHealthTracker(1, time.Hour)
	ht.RecordSuccess("openai")
	ht.RecordFailure("gemini")

	status := ht.Status()
	if len(status) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(status))
	}

	if got := status["openai"]; got.State != "closed" || got.OpenedAt != nil {
		t.Errorf("unexpected openai status: %+v", got)
	}
	gemini := status["gemini"]
	if gemini.State != "open" || gemini.ConsecutiveFailures != 1 {
		t.Errorf("unexpected gemini status: %+v", gemini)
	}
	if gemini.OpenedAt == nil {
		t.Error("expected openedAt for an open circuit")
	}
}

func TestHealthTracker_StatusDoesNotClaimTrialCall(t *testing.T) {
	ht := NewHealthTracker(1, 0)
	ht.RecordFailure("gemini")

	if got := ht.Status()["gemini"].State; got != "half_open" {
		t.Fatalf("expected half_open with zero cooldown, got %s", got)
	}
	if !ht.IsAvailable("gemini") {
		t.Error("expected the trial call to still be available after a status read")
	}
}

func TestHealthTracker_ResetClosesEveryCircuit(t *testing.T) {
	ht := NewHealthTracker(1, time.Hour)
	ht.RecordFailure("gemini")
	ht.RecordFailure("openai")

	ht.Reset()

	for _, provider := range []string{"gemini", "openai"} {
		if got := ht.Status()[provider]; got.State != "closed" || got.ConsecutiveFailures != 0 {
			t.Errorf("expected %s closed with no failures after reset, got %+v", provider, got)
		}
		if !ht.IsAvailable(provider) {
			t.Errorf("expected %s available after reset", provider)
		}
	}
}
