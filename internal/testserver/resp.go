package testserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// RESP is an in-memory responder for a handful of commands: PING, ECHO,
// GET, SET, DEL and CLIENT. Everything else, HELLO included, gets an
// error reply so clients fall back to RESP2.
type RESP struct {
	mu   sync.Mutex
	data map[string]string
	cmds []string
}

// NewRESP returns an empty responder.
func NewRESP() *RESP {
	return &RESP{data: make(map[string]string)}
}

// Commands returns the upper-cased command names received so far.
func (r *RESP) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cmds...)
}

// Serve answers commands on conn until the peer closes. It is a Handler.
func (r *RESP) Serve(conn net.Conn) {
	br := bufio.NewReader(conn)
	bw := bufio.NewWriter(conn)
	for {
		args, err := readCommand(br)
		if err != nil {
			return
		}
		if len(args) == 0 {
			continue
		}
		r.reply(bw, args)
		if err := bw.Flush(); err != nil {
			return
		}
	}
}

func (r *RESP) reply(w *bufio.Writer, args []string) {
	name := strings.ToUpper(args[0])

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, name)

	switch {
	case name == "PING" && len(args) == 1:
		w.WriteString("+PONG\r\n")
	case name == "PING" || name == "ECHO" && len(args) == 2:
		writeBulk(w, args[1])
	case name == "GET" && len(args) == 2:
		if v, ok := r.data[args[1]]; ok {
			writeBulk(w, v)
		} else {
			w.WriteString("$-1\r\n")
		}
	case name == "SET" && len(args) >= 3:
		r.data[args[1]] = args[2]
		w.WriteString("+OK\r\n")
	case name == "DEL" && len(args) >= 2:
		n := 0
		for _, k := range args[1:] {
			if _, ok := r.data[k]; ok {
				delete(r.data, k)
				n++
			}
		}
		fmt.Fprintf(w, ":%d\r\n", n)
	case name == "CLIENT":
		w.WriteString("+OK\r\n")
	default:
		fmt.Fprintf(w, "-ERR unknown command '%s'\r\n", args[0])
	}
}

func writeBulk(w *bufio.Writer, s string) {
	fmt.Fprintf(w, "$%d\r\n%s\r\n", len(s), s)
}

var errProtocol = errors.New("resp: protocol error")

// readCommand reads a multibulk command or an inline command line.
func readCommand(br *bufio.Reader) ([]string, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		return strings.Fields(line), nil
	}

	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 0 {
		return nil, errProtocol
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hdr, err := readLine(br)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(hdr, "$") {
			return nil, errProtocol
		}
		size, err := strconv.Atoi(hdr[1:])
		if err != nil || size < 0 {
			return nil, errProtocol
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
