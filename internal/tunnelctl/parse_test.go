package tunnelctl

import "testing"

func TestParseStatusText_AllFields(t *testing.T) {
	output := "interface: wg0\nendpoint: 203.0.113.1:51820\nlatest handshake: 52 seconds ago\ntransfer: 712 B received, 1.36 KiB sent\n"
	st, err := ParseStatusText(output)
	if err != nil {
		t.Fatalf("ParseStatusText: %v", err)
	}
	if !st.Connected || st.Interface != "wg0" {
		t.Errorf("Connected/Interface = %v/%q", st.Connected, st.Interface)
	}
	if st.Endpoint != "203.0.113.1:51820" {
		t.Errorf("Endpoint = %q", st.Endpoint)
	}
	if st.HandshakeStale {
		t.Error("HandshakeStale = true, want false for a fresh second-scale handshake")
	}
	if !st.HasTraffic {
		t.Error("HasTraffic = false, want true (712 + 1392 > 1024)")
	}
}

func TestParseStatusText_EmptyOutput(t *testing.T) {
	if _, err := ParseStatusText(""); err != ErrParseFailure {
		t.Errorf("ParseStatusText(empty) error = %v, want ErrParseFailure", err)
	}
}

func TestParseStatusText_FirstBlockOnly(t *testing.T) {
	output := "interface: wg0\nendpoint: 1.2.3.4:51820\nlatest handshake: 1 second ago\ntransfer: 0 B received, 0 B sent\n\ninterface: wg1\n"
	st, err := ParseStatusText(output)
	if err != nil {
		t.Fatalf("ParseStatusText: %v", err)
	}
	if st.Interface != "wg0" {
		t.Errorf("Interface = %q, want wg0 (first block only)", st.Interface)
	}
}

func TestHandshakeStale(t *testing.T) {
	cases := []struct {
		phrase string
		want   bool
	}{
		{"52 seconds ago", false},
		{"1 second ago", false},
		{"3 minutes ago", true},
		{"2 minutes ago", false},
		{"2 minutes, 10 seconds ago", false},
		{"1 hour ago", true},
		{"2 days ago", true},
		{"", true},
		{"Never", true},
	}
	for _, c := range cases {
		if got := handshakeStale(c.phrase); got != c.want {
			t.Errorf("handshakeStale(%q) = %v, want %v", c.phrase, got, c.want)
		}
	}
}

func TestHandshakeStale_MinuteBoundary(t *testing.T) {
	if handshakeStale("2 minutes ago") {
		t.Error("2 minutes ago: want fresh")
	}
	if !handshakeStale("3 minutes ago") {
		t.Error("3 minutes ago: want stale")
	}
}

func TestParseTransfer_IECAndSI(t *testing.T) {
	received, transmitted := parseTransfer("1.00 KiB received, 2 MB sent")
	if received != 1024 {
		t.Errorf("received = %d, want 1024", received)
	}
	if transmitted != 2_000_000 {
		t.Errorf("transmitted = %d, want 2000000", transmitted)
	}
}

func TestParseTransfer_ThresholdExact(t *testing.T) {
	received, transmitted := parseTransfer("1024 B received, 0 B sent")
	if received+transmitted != 1024 {
		t.Fatalf("sum = %d, want 1024", received+transmitted)
	}
}
