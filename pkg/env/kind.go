package env

import (
	"fmt"
	"strings"
)

// Kind selects a socket factory.
type Kind string

// Transport kinds.
const (
	KindTCP  Kind = "tcp"
	KindUnix Kind = "unix"
	KindSSL  Kind = "ssl"
)

// Kinds returns the built-in transport kinds.
func Kinds() []Kind {
	return []Kind{KindTCP, KindUnix, KindSSL}
}

// ParseKind parses a transport kind, case-insensitively. "tls" is an
// alias for "ssl"; the empty string means tcp.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tcp":
		return KindTCP, nil
	case "unix":
		return KindUnix, nil
	case "ssl", "tls":
		return KindSSL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// String returns the kind name.
func (k Kind) String() string { return string(k) }
