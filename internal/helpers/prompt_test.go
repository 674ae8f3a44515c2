package helpers

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		giveInput  string
		giveDef    bool
		want       bool
		wantPrompt string
	}{
		{name: "yes", giveInput: "y\n", want: true, wantPrompt: "Share? [y/N]: "},
		{name: "YES", giveInput: " YES \n", want: true, wantPrompt: "Share? [y/N]: "},
		{name: "no", giveInput: "no\n", giveDef: true, want: false, wantPrompt: "Share? [Y/n]: "},
		{name: "empty takes default", giveInput: "\n", giveDef: true, want: true, wantPrompt: "Share? [Y/n]: "},
		{name: "eof takes default", giveInput: "", want: false, wantPrompt: "Share? [y/N]: "},
		{name: "garbage refuses", giveInput: "maybe\n", giveDef: true, want: false, wantPrompt: "Share? [Y/n]: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			got, err := PromptYesNo(strings.NewReader(tt.giveInput), &out, "Share?", tt.giveDef)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, strings.HasPrefix(out.String(), tt.wantPrompt), out.String())
		})
	}
}

// questionWriter signals every time a question is printed.
type questionWriter struct {
	asked chan struct{}
}

func (w *questionWriter) Write(b []byte) (int, error) {
	if strings.HasSuffix(string(b), "]: ") {
		w.asked <- struct{}{}
	}
	return len(b), nil
}

func TestLinePrompter_AnswerAfterAbandonedQuestion(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	out := &questionWriter{asked: make(chan struct{}, 4)}
	p := NewLinePrompter(pr, out)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	ok, err := p.Ask(ctx, "first", false)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	<-out.asked

	type answer struct {
		ok  bool
		err error
	}
	done := make(chan answer, 1)
	go func() {
		ok, err := p.Ask(t.Context(), "second", false)
		done <- answer{ok: ok, err: err}
	}()

	select {
	case <-out.asked:
	case <-time.After(2 * time.Second):
		t.Fatal("second question not asked")
	}
	_, err = io.WriteString(pw, "y\n")
	require.NoError(t, err)

	select {
	case a := <-done:
		require.NoError(t, a.err)
		assert.True(t, a.ok)
	case <-time.After(2 * time.Second):
		t.Fatal("answer never reached the open question")
	}
}

func TestAccountAccessPrompt(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	ask := AccountAccessPrompt("simpledex-client", NewLinePrompter(strings.NewReader("yes\nn\n"), &out))

	ok, err := ask(t.Context())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ask(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)

	// input exhausted: the default (refuse) applies
	ok, err = ask(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, out.String(), "simpledex-client wants to connect to your wallet")
}
