// Package probe implements the kvnet-probe commands: a minimal RESP
// client running on top of an env.Environment.
package probe

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrIncomplete means the buffer ends before the reply does.
	ErrIncomplete = errors.New("incomplete reply")

	// ErrProtocol is returned for bytes that are not a RESP reply.
	ErrProtocol = errors.New("protocol error")
)

// EncodeCommand encodes args as a RESP array of bulk strings.
func EncodeCommand(args []string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(a), a)
	}
	return b.Bytes()
}

// Reply is one decoded RESP reply.
type Reply struct {
	// Type is the RESP type byte: '+', '-', ':', '$', '*', or '_' for
	// RESP3 null.
	Type  byte
	Str   string
	Int   int64
	Null  bool
	Elems []Reply
}

// IsError reports whether the server answered with an error.
func (r Reply) IsError() bool { return r.Type == '-' }

// String formats the reply the way redis-cli does.
func (r Reply) String() string {
	var b strings.Builder
	r.format(&b, "")
	return b.String()
}

func (r Reply) format(b *strings.Builder, indent string) {
	switch {
	case r.Null:
		b.WriteString("(nil)")
	case r.Type == '+':
		b.WriteString(r.Str)
	case r.Type == '-':
		b.WriteString("(error) " + r.Str)
	case r.Type == ':':
		b.WriteString("(integer) " + strconv.FormatInt(r.Int, 10))
	case r.Type == '$':
		b.WriteString(strconv.Quote(r.Str))
	case r.Type == '*' && len(r.Elems) == 0:
		b.WriteString("(empty array)")
	case r.Type == '*':
		for i, e := range r.Elems {
			if i > 0 {
				b.WriteString("\n" + indent)
			}
			prefix := strconv.Itoa(i+1) + ") "
			b.WriteString(prefix)
			e.format(b, indent+strings.Repeat(" ", len(prefix)))
		}
	}
}

// ParseReply decodes one reply from the front of buf and returns it with
// the number of bytes consumed. It returns ErrIncomplete when buf holds
// only part of a reply.
func ParseReply(buf []byte) (Reply, int, error) {
	line, n, err := readLine(buf)
	if err != nil {
		return Reply{}, 0, err
	}
	if len(line) == 0 {
		return Reply{}, 0, fmt.Errorf("%w: empty line", ErrProtocol)
	}

	r := Reply{Type: line[0]}
	body := string(line[1:])

	switch r.Type {
	case '+', '-':
		r.Str = body
		return r, n, nil

	case ':':
		r.Int, err = strconv.ParseInt(body, 10, 64)
		if err != nil {
			return Reply{}, 0, fmt.Errorf("%w: bad integer %q", ErrProtocol, body)
		}
		return r, n, nil

	case '_':
		r.Null = true
		return r, n, nil

	case '$':
		size, err := strconv.Atoi(body)
		if err != nil || size < -1 {
			return Reply{}, 0, fmt.Errorf("%w: bad bulk length %q", ErrProtocol, body)
		}
		if size == -1 {
			r.Null = true
			return r, n, nil
		}
		if len(buf) < n+size+2 {
			return Reply{}, 0, ErrIncomplete
		}
		if buf[n+size] != '\r' || buf[n+size+1] != '\n' {
			return Reply{}, 0, fmt.Errorf("%w: bulk string not terminated", ErrProtocol)
		}
		r.Str = string(buf[n : n+size])
		return r, n + size + 2, nil

	case '*':
		count, err := strconv.Atoi(body)
		if err != nil || count < -1 {
			return Reply{}, 0, fmt.Errorf("%w: bad array length %q", ErrProtocol, body)
		}
		if count == -1 {
			r.Null = true
			return r, n, nil
		}
		r.Elems = make([]Reply, 0, count)
		for i := 0; i < count; i++ {
			e, m, err := ParseReply(buf[n:])
			if err != nil {
				return Reply{}, 0, err
			}
			r.Elems = append(r.Elems, e)
			n += m
		}
		return r, n, nil
	}

	return Reply{}, 0, fmt.Errorf("%w: unknown type %q", ErrProtocol, r.Type)
}

// readLine returns the bytes before the first CRLF and the length
// including it.
func readLine(buf []byte) ([]byte, int, error) {
	i := bytes.Index(buf, []byte("\r\n"))
	if i < 0 {
		return nil, 0, ErrIncomplete
	}
	return buf[:i], i + 2, nil
}

// SplitArgs splits an interactive input line into arguments. Single and
// double quotes group words; inside double quotes \n, \r, \t, \" and \\
// are unescaped.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, c := range line {
		switch {
		case escaped:
			switch c {
			case 'n':
				cur.WriteRune('\n')
			case 'r':
				cur.WriteRune('\r')
			case 't':
				cur.WriteRune('\t')
			default:
				cur.WriteRune(c)
			}
			escaped = false
		case quote == '"' && c == '\\':
			escaped = true
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(c)
		case c == '"' || c == '\'':
			quote = c
			inArg = true
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, errors.New("unbalanced quotes")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
