package google

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/internal/classify"
	"google.golang.org/genai"
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 4 << 10

// recorder is an http.RoundTripper that remembers the status, Retry-After
// header and error body of the last response. genai.APIError takes its code from the response body,
// so the transport-level status is the reliable source for classification.
type recorder struct {
	base http.RoundTripper

	mu         sync.Mutex
	status     int
	retryAfter string
	body       string
}

func newRecorder(hc *http.Client) *recorder {
	base := http.DefaultTransport
	if hc != nil && hc.Transport != nil {
		base = hc.Transport
	}
	return &recorder{base: base}
}

func (r *recorder) client() *http.Client {
	return &http.Client{Transport: r}
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = resp.StatusCode
	r.retryAfter = resp.Header.Get("Retry-After")
	r.body = ""

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		r.body = string(b)
		resp.Body = io.NopCloser(bytes.NewReader(b))
	}
	return resp, nil
}

func (r *recorder) last() (status int, retryAfter, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.retryAfter, r.body
}

// wrapError classifies a failed generateContent call.
func wrapError(err error, rec *recorder) *quizsolver.Error {
	status, retryAfter, body := rec.last()

	if status != 0 && (status < 200 || status > 299) {
		e := classify.Status(status, body, retryAfter)
		e.Cause = err
		return e
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		e := classify.Status(apiErr.Code, apiErr.Message, "")
		e.Cause = err
		return e
	}

	classified := classify.Error(err)
	if status != 0 && classified.Kind == quizsolver.KindUnknown {
		// A 2xx body the SDK could not decode.
		return quizsolver.NewError(quizsolver.KindFormatMismatch, "", err)
	}
	return classified
}
