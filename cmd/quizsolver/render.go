package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spetersoncode/quizsolver"
)

// terminalRenderer prints agent output as plain text.
type terminalRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalRenderer(out io.Writer) *terminalRenderer {
	return &terminalRenderer{out: out}
}

func (r *terminalRenderer) Loading(question string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "Solving: %s\n", preview(question, 60))
}

func (r *terminalRenderer) Answer(result quizsolver.AnswerResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if result.Mode == quizsolver.ModeCoding {
		fmt.Fprintf(r.out, "\n%s\n", result.Text)
		return
	}
	fmt.Fprintf(r.out, "Answer: %s\n", result.Text)
}

func (r *terminalRenderer) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "Error: %s\n", message)
}

// preview collapses whitespace and truncates s to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
