package helpers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/term"
)

// PromptYesNo prints label and reads one answer line from in.
// An empty answer (or EOF) yields def.
func PromptYesNo(in io.Reader, out io.Writer, label string, def bool) (bool, error) {
	printQuestion(out, label, def)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, errors.Wrap(err, "read answer")
	}
	return parseAnswer(out, line, def), nil
}

// StdinIsTerminal reports whether answers can be asked for interactively.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type lineResult struct {
	line string
	eof  bool
	err  error
}

// LinePrompter asks yes/no questions over one input stream. A single goroutine owns the
// reader for the life of the process and reads a line only when a question wants one.
// A line that completes while no question is open is dropped, so an answer typed after a
// question gave up never lands on the next one.
type LinePrompter struct {
	in  io.Reader
	out io.Writer

	start   sync.Once
	want    chan struct{}
	answers chan lineResult

	// one question at a time
	mu sync.Mutex

	stateMu   sync.Mutex
	waiting   bool
	reading   bool
	done      bool
	closedErr error
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:      in,
		out:     out,
		want:    make(chan struct{}, 1),
		answers: make(chan lineResult, 1),
	}
}

var (
	stdinPrompterOnce sync.Once
	stdinPrompter     *LinePrompter
)

// StdinPrompter is the process-wide prompter reading os.Stdin and writing to os.Stderr.
func StdinPrompter() *LinePrompter {
	stdinPrompterOnce.Do(func() {
		stdinPrompter = NewLinePrompter(os.Stdin, os.Stderr)
	})
	return stdinPrompter
}

func (p *LinePrompter) readLoop() {
	r := bufio.NewReader(p.in)
	for range p.want {
		line, err := r.ReadString('\n')

		res := lineResult{line: line}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			res.eof = line == ""
		default:
			res = lineResult{err: errors.Wrap(err, "read answer")}
		}

		p.stateMu.Lock()
		p.reading = false
		if p.waiting {
			p.answers <- res
		}
		if err != nil {
			p.done = true
			p.closedErr = res.err
		}
		p.stateMu.Unlock()

		if err != nil {
			return
		}
	}
}

// Ask prints label and waits for an answer until ctx ends. Once the input is exhausted
// every question yields def.
func (p *LinePrompter) Ask(ctx context.Context, label string, def bool) (bool, error) {
	p.start.Do(func() { go p.readLoop() })

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stateMu.Lock()
	if p.done {
		err := p.closedErr
		p.stateMu.Unlock()
		if err != nil {
			return false, err
		}
		return def, nil
	}
	p.waiting = true
	if !p.reading {
		// a read still pending from an abandoned question serves this one
		p.reading = true
		p.want <- struct{}{}
	}
	p.stateMu.Unlock()

	printQuestion(p.out, label, def)

	select {
	case <-ctx.Done():
		p.stopWaiting()
		_, _ = fmt.Fprintln(p.out)
		return false, ctx.Err()
	case res := <-p.answers:
		p.stopWaiting()
		switch {
		case res.err != nil:
			return false, res.err
		case res.eof:
			return def, nil
		}
		return parseAnswer(p.out, res.line, def), nil
	}
}

// stopWaiting closes the question and drops an answer that raced with its end.
func (p *LinePrompter) stopWaiting() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.waiting = false
	select {
	case <-p.answers:
	default:
	}
}

// AccountAccessPrompt returns a consent check that asks through p before the wallet
// accounts are handed to the client.
func AccountAccessPrompt(appName string, p *LinePrompter) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		_, _ = fmt.Fprintln(p.out)
		_, _ = fmt.Fprintf(p.out, "=== %s wants to connect to your wallet ===\n", appName)
		return p.Ask(ctx, "Share your wallet accounts", false)
	}
}

func printQuestion(out io.Writer, label string, def bool) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	_, _ = fmt.Fprintf(out, "%s [%s]: ", label, hint)
}

func parseAnswer(out io.Writer, line string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		_, _ = fmt.Fprintln(out, "❌ Please answer y or n.")
		return false
	}
}
