package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapyear/internal/workspace"
	"golang.org/x/term"
)

// action is what the interactive menu asked for.
type action int

const (
	actionRun action = iota + 1
	actionIDs
)

// maxPromptAttempts bounds how often an invalid reference is re-asked.
const maxPromptAttempts = 3

// errPromptCancelled is returned on ^C or EOF at a prompt.
var errPromptCancelled = errors.New("prompt cancelled")

// lineReader is the part of *readline.Instance the prompt uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// stdinIsTerminal reports whether the process can prompt.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newLineReader opens a readline prompt on the process terminal.
var newLineReader = func(out io.Writer) (lineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt: %w", err)
	}
	return rl, nil
}

func readLine(rl lineReader, prompt string) (string, error) {
	rl.SetPrompt(prompt)
	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", errPromptCancelled
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptTarget asks for a container reference and what to do with it.
func promptTarget(rl lineReader, out io.Writer) (string, action, error) {
	var ref string
	for attempt := 1; ; attempt++ {
		line, err := readLine(rl, "Container page URL or id: ")
		if err != nil {
			return "", 0, err
		}
		if _, perr := workspace.ParseContainerRef(line); perr == nil {
			ref = line
			break
		} else if attempt >= maxPromptAttempts {
			return "", 0, perr
		} else {
			_, _ = fmt.Fprintf(out, "%v\n", perr)
		}
	}

	_, _ = fmt.Fprintln(out, "1) Run full pipeline")
	_, _ = fmt.Fprintln(out, "2) Print identifiers only")
	for attempt := 1; ; attempt++ {
		line, err := readLine(rl, "Choice [1]: ")
		if err != nil {
			return "", 0, err
		}
		if a, ok := parseChoice(line); ok {
			return ref, a, nil
		}
		if attempt >= maxPromptAttempts {
			return "", 0, fmt.Errorf("invalid choice %q", line)
		}
		_, _ = fmt.Fprintf(out, "invalid choice %q, enter 1 or 2\n", line)
	}
}

func parseChoice(s string) (action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "run":
		return actionRun, true
	case "2", "ids":
		return actionIDs, true
	}
	return 0, false
}
