package helperops

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vpnwatch/vpnwatchd/internal/wireguard"
)

func TestDispatch_ConfigWriteThenListThenRead(t *testing.T) {
	store := NewStore(t.TempDir())
	lc := NewLifecycle(&fakeWG{}, &fakeFW{}, store, wireguard.Config{}, discardLogger())

	var out bytes.Buffer
	if code := Dispatch(lc, store, "config-write", []string{"office"}, strings.NewReader(validTunnelBody()), &out); code != 0 {
		t.Fatalf("config-write exit = %d, out = %s", code, out.String())
	}

	out.Reset()
	if code := Dispatch(lc, store, "config-list", nil, nil, &out); code != 0 {
		t.Fatalf("config-list exit = %d", code)
	}
	if strings.TrimSpace(out.String()) != "office" {
		t.Fatalf("config-list output = %q", out.String())
	}

	out.Reset()
	if code := Dispatch(lc, store, "config-read", []string{"office"}, nil, &out); code != 0 {
		t.Fatalf("config-read exit = %d", code)
	}
	if out.String() != validTunnelBody() {
		t.Fatalf("config-read output = %q", out.String())
	}
}

func TestDispatch_ConfigDelete(t *testing.T) {
	store := NewStore(t.TempDir())
	lc := NewLifecycle(&fakeWG{}, &fakeFW{}, store, wireguard.Config{}, discardLogger())

	var out bytes.Buffer
	Dispatch(lc, store, "config-write", []string{"office"}, strings.NewReader("x"), &out)

	out.Reset()
	if code := Dispatch(lc, store, "config-delete", []string{"office"}, nil, &out); code != 0 {
		t.Fatalf("config-delete exit = %d", code)
	}

	out.Reset()
	if code := Dispatch(lc, store, "config-read", []string{"office"}, nil, &out); code != 1 {
		t.Fatalf("config-read after delete exit = %d, want 1", code)
	}
}

func TestDispatch_UnknownVerbReturnsUsageCode(t *testing.T) {
	store := NewStore(t.TempDir())
	lc := NewLifecycle(&fakeWG{}, &fakeFW{}, store, wireguard.Config{}, discardLogger())

	var out bytes.Buffer
	if code := Dispatch(lc, store, "bogus", nil, nil, &out); code != 2 {
		t.Fatalf("unknown verb exit = %d, want 2", code)
	}
}

func TestDispatch_MissingArgReturnsUsageCode(t *testing.T) {
	store := NewStore(t.TempDir())
	lc := NewLifecycle(&fakeWG{}, &fakeFW{}, store, wireguard.Config{}, discardLogger())

	var out bytes.Buffer
	if code := Dispatch(lc, store, "connect", nil, nil, &out); code != 2 {
		t.Fatalf("connect with no args exit = %d, want 2", code)
	}
}

func TestDispatch_KillSwitchOnAndOff(t *testing.T) {
	store := NewStore(t.TempDir())
	lc := NewLifecycle(&fakeWG{}, &fakeFW{}, store, wireguard.Config{}, discardLogger())

	var out bytes.Buffer
	if code := Dispatch(lc, store, "killswitch-on", []string{"office"}, nil, &out); code != 0 {
		t.Fatalf("killswitch-on exit = %d", code)
	}

	out.Reset()
	if code := Dispatch(lc, store, "killswitch-status", nil, nil, &out); code != 0 {
		t.Fatalf("killswitch-status exit = %d", code)
	}
	if strings.TrimSpace(out.String()) != "enabled" {
		t.Fatalf("killswitch-status output = %q", out.String())
	}

	out.Reset()
	if code := Dispatch(lc, store, "killswitch-off", nil, nil, &out); code != 0 {
		t.Fatalf("killswitch-off exit = %d", code)
	}
}
