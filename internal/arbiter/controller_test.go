package arbiter

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingTunnels records call order and simulates connect/disconnect.
type recordingTunnels struct {
	calls  *[]string
	active string
}

func (r *recordingTunnels) Connect(_ context.Context, name string) error {
	*r.calls = append(*r.calls, "connect:"+name)
	r.active = name
	return nil
}

func (r *recordingTunnels) Disconnect(context.Context) error {
	*r.calls = append(*r.calls, "disconnect")
	r.active = ""
	return nil
}

func (r *recordingTunnels) ActiveTunnelName(context.Context) (string, bool) {
	return r.active, r.active != ""
}

type recordingKillSwitch struct {
	calls   *[]string
	enabled bool
}

func (k *recordingKillSwitch) Enable(context.Context) error {
	*k.calls = append(*k.calls, "killswitch-on")
	k.enabled = true
	return nil
}

func (k *recordingKillSwitch) Disable(context.Context) error {
	*k.calls = append(*k.calls, "killswitch-off")
	k.enabled = false
	return nil
}

func (k *recordingKillSwitch) IsEnabled(context.Context) (bool, error) {
	return k.enabled, nil
}

func newTestArbiter(t *testing.T) (*Arbiter, *[]string, *recordingTunnels, *recordingKillSwitch) {
	t.Helper()
	var calls []string
	tunnels := &recordingTunnels{calls: &calls}
	ks := &recordingKillSwitch{calls: &calls}
	configPath := filepath.Join(t.TempDir(), "config.toml")
	return New(tunnels, ks, configPath, discardLogger()), &calls, tunnels, ks
}

func TestSchedule_ReplacesPendingAndResetsCountdown(t *testing.T) {
	a, _, _, _ := newTestArbiter(t)

	a.Schedule(PendingChange{TunnelName: "work", Action: ActionConnect})
	first, ok := a.Pending()
	if !ok {
		t.Fatal("expected a pending change")
	}

	a.Schedule(PendingChange{TunnelName: "home", Action: ActionConnect})
	second, ok := a.Pending()
	if !ok {
		t.Fatal("expected a pending change after re-schedule")
	}
	if second.TunnelName != "home" {
		t.Errorf("TunnelName = %q, want %q (coalesced)", second.TunnelName, "home")
	}
	if !second.CountdownStart.After(first.CountdownStart) {
		t.Error("countdown was not restarted on re-schedule")
	}
	if second.CountdownSeconds != DefaultCountdownSeconds {
		t.Errorf("CountdownSeconds = %d, want %d", second.CountdownSeconds, DefaultCountdownSeconds)
	}
}

func TestCancel_ClearsPending(t *testing.T) {
	a, _, _, _ := newTestArbiter(t)
	a.Schedule(PendingChange{TunnelName: "work", Action: ActionConnect})
	a.Cancel()
	if _, ok := a.Pending(); ok {
		t.Error("Pending() after Cancel() = true, want false")
	}
}

func TestTick_DoesNotApplyBeforeCountdownElapses(t *testing.T) {
	a, calls, _, _ := newTestArbiter(t)
	a.Schedule(PendingChange{TunnelName: "work", Action: ActionConnect, CountdownSeconds: 60})
	if err := a.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("calls = %v, want none before countdown elapses", *calls)
	}
	if _, ok := a.Pending(); !ok {
		t.Error("pending change was consumed before its countdown elapsed")
	}
}

func TestTick_AppliesAfterCountdownElapses(t *testing.T) {
	a, calls, _, _ := newTestArbiter(t)
	a.Schedule(PendingChange{TunnelName: "work", Action: ActionConnect, CountdownSeconds: 1})
	time.Sleep(1100 * time.Millisecond)
	if err := a.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0] != "connect:work" {
		t.Errorf("calls = %v, want [connect:work]", *calls)
	}
	if _, ok := a.Pending(); ok {
		t.Error("pending change was not consumed after apply")
	}
}

func TestApply_KillSwitchOrderingOnReconnect(t *testing.T) {
	a, calls, tunnels, ks := newTestArbiter(t)
	tunnels.active = "t1"
	ks.enabled = true
	a.SetKillSwitchArmed(true)

	a.Schedule(PendingChange{TunnelName: "t2", Action: ActionReconnect, CountdownSeconds: 0})
	// Force-elapse by constructing with a start time in the past.
	pending, _ := a.Pending()
	pending.CountdownStart = time.Now().Add(-10 * time.Second)
	a.mu.Lock()
	a.pending = &pending
	a.mu.Unlock()

	if err := a.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	want := []string{"killswitch-off", "disconnect", "connect:t2"}
	if len(*calls) != len(want) {
		t.Fatalf("calls = %v, want %v", *calls, want)
	}
	for i, c := range want {
		if (*calls)[i] != c {
			t.Errorf("calls[%d] = %q, want %q", i, (*calls)[i], c)
		}
	}
}

func TestApply_DisconnectSkipsKillSwitchWhenNotArmed(t *testing.T) {
	a, calls, tunnels, _ := newTestArbiter(t)
	tunnels.active = "t1"

	a.Schedule(PendingChange{Action: ActionDisconnect, CountdownSeconds: 0})
	pending, _ := a.Pending()
	pending.CountdownStart = time.Now().Add(-10 * time.Second)
	a.mu.Lock()
	a.pending = &pending
	a.mu.Unlock()

	if err := a.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(*calls) != 1 || (*calls)[0] != "disconnect" {
		t.Errorf("calls = %v, want [disconnect]", *calls)
	}
}

func TestPendingChange_RemainingSeconds(t *testing.T) {
	p := PendingChange{CountdownStart: time.Now(), CountdownSeconds: 4}
	if got := p.RemainingSeconds(time.Now()); got != 4 {
		t.Errorf("RemainingSeconds = %d, want 4", got)
	}
	if got := p.RemainingSeconds(p.CountdownStart.Add(5 * time.Second)); got != 0 {
		t.Errorf("RemainingSeconds after elapsed = %d, want 0", got)
	}
}
