package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/zalando/go-keyring"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd("test")
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

// geminiServer answers every generateContent call with answer and passes
// the request body to seen.
func geminiServer(t *testing.T, answer string, seen chan<- []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if seen != nil {
			select {
			case seen <- b:
			default:
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, answer)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func memoryEnv(t *testing.T, key, geminiURL string) {
	t.Helper()
	clearEnv(t)
	t.Setenv("QUIZSOLVER_STORE", "memory")
	t.Setenv("QUIZSOLVER_API_KEY", key)
	t.Setenv("QUIZSOLVER_GEMINI_BASE_URL", geminiURL)
}

func TestSolveCommand(t *testing.T) {
	seen := make(chan []byte, 1)
	srv := geminiServer(t, "The answer is: C) Paris", seen)
	memoryEnv(t, "AIza-test", srv.URL)

	out, err := run(t, "", "solve", "Capital of France? A) Rome B) Berlin C) Paris")
	require.NoError(t, err)

	assert.Contains(t, out, "Solving: Capital of France?")
	assert.Contains(t, out, "Answer: C: Paris")

	body := <-seen
	assert.Contains(t, gjson.GetBytes(body, "contents.0.parts.0.text").String(), "Capital of France?")
}

func TestSolveCommandReadsStdinAndImages(t *testing.T) {
	seen := make(chan []byte, 1)
	srv := geminiServer(t, "B: 4", seen)
	memoryEnv(t, "AIza-test", srv.URL)

	out, err := run(t, "What is 2+2?\n", "solve",
		"--image", "https://example.com/q.png",
		"--option", "A=https://example.com/a.png")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer: B: 4")

	prompt := gjson.GetBytes(<-seen, "contents.0.parts.0.text").String()
	assert.Contains(t, prompt, "What is 2+2?")
	assert.Contains(t, prompt, "https://example.com/q.png")
	assert.Contains(t, prompt, "https://example.com/a.png")
}

func TestSolveCommandCodingModeKeepsText(t *testing.T) {
	srv := geminiServer(t, "Answer: use a map", nil)
	memoryEnv(t, "AIza-test", srv.URL)

	out, err := run(t, "", "solve", "--mode", "coding", "Write two-sum in Go")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer: use a map")
}

func TestSolveCommandMissingKey(t *testing.T) {
	memoryEnv(t, "", "http://127.0.0.1:1")

	out, err := run(t, "", "solve", "What is 2+2?")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "Please set up your API key")
}

func TestSolveCommandBadOption(t *testing.T) {
	memoryEnv(t, "AIza-test", "http://127.0.0.1:1")

	_, err := run(t, "", "solve", "--option", "A", "question")
	assert.ErrorContains(t, err, "LETTER=URL")
}

func TestSelectCommand(t *testing.T) {
	srv := geminiServer(t, "B) Jupiter", nil)
	memoryEnv(t, "AIza-test", srv.URL)

	out, err := run(t, "", "select", "Largest planet? A) Mars B) Jupiter")
	require.NoError(t, err)
	assert.Contains(t, out, "Answer: B: Jupiter")
}

func TestSelectCommandShortSelection(t *testing.T) {
	memoryEnv(t, "AIza-test", "http://127.0.0.1:1")

	out, err := run(t, "", "select", "hi")
	require.NoError(t, err)
	assert.Contains(t, out, "Please select a little more text")
}

func TestProbeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ready"}}]}`)
	}))
	t.Cleanup(srv.Close)
	memoryEnv(t, "", "")

	out, err := run(t, "", "probe", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ready\n", out)
}

func TestProbeCommandAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	memoryEnv(t, "", "")

	_, err := run(t, "", "probe", srv.URL, "ping")
	assert.ErrorContains(t, err, "401")
}

func TestKeyCommands(t *testing.T) {
	keyring.MockInit()
	clearEnv(t)

	out, err := run(t, "", "key", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Please set up your API key")

	out, err = run(t, "", "key", "set", "sk-abcdefghijklmnop", "--provider", "chatgpt")
	require.NoError(t, err)
	assert.Equal(t, "Saved chatgpt:sk-abcde...mnop\n", out)

	out, err = run(t, "", "key", "show")
	require.NoError(t, err)
	assert.Equal(t, "chatgpt:sk-abcde...mnop\n", out)

	out, err = run(t, "", "key", "set", "http://localhost:8080/api")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved custom:")

	_, err = run(t, "", "key", "remove")
	require.NoError(t, err)

	out, err = run(t, "", "key", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Please set up your API key")
}
