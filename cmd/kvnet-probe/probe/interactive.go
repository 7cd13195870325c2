package probe

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Shell is the interactive command loop.
type Shell struct {
	session *Session
	rl      *readline.Instance
}

// NewShell creates a shell reading from the terminal. stdin may be nil
// for the process's standard input.
func NewShell(session *Session, prompt string, stdin io.ReadCloser) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{session: session, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until EOF, "quit" or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}

		if quit := s.Execute(ctx, line, s.rl.Stdout()); quit {
			return nil
		}
	}
}

// Execute runs one input line and writes the result to w. It reports
// whether the user asked to quit.
func (s *Shell) Execute(ctx context.Context, line string, w io.Writer) bool {
	return execute(ctx, s.session, line, w)
}

func execute(ctx context.Context, session *Session, line string, w io.Writer) bool {
	args, err := SplitArgs(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(w, "(error) %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	switch strings.ToLower(args[0]) {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(w, `Type any command to send it, e.g.:
  PING
  SET greeting "hello world"
  GET greeting
  quit`)
		return false
	}

	reply, err := session.Do(ctx, args...)
	if err != nil {
		fmt.Fprintf(w, "(error) %v\n", err)
		return false
	}
	fmt.Fprintln(w, reply.String())
	return false
}
