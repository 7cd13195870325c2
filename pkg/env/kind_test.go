package env

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"tcp", KindTCP, false},
		{"", KindTCP, false},
		{"unix", KindUnix, false},
		{"ssl", KindSSL, false},
		{"tls", KindSSL, false},
		{" TLS ", KindSSL, false},
		{"UNIX", KindUnix, false},
		{"udp", "", true},
		{"quic", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownKind) {
				t.Errorf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 3 {
		t.Fatalf("expected 3 kinds, got %d", len(kinds))
	}
	for _, k := range kinds {
		parsed, err := ParseKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("kind %s does not round-trip: %s, %v", k, parsed, err)
		}
	}
}
