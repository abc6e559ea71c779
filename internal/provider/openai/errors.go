package openai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/quizsolver"
	"github.com/spetersoncode/quizsolver/internal/classify"
)

const billingHint = "Please check your OpenAI account billing and credits."

// wrapError classifies a failed chat-completions call. status is the HTTP
// status seen by the middleware, or 0 when no response arrived.
func wrapError(err error, status int) *quizsolver.Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		detail := errorDetail(apiErr)

		if code == 402 || code == 500 {
			return &quizsolver.Error{
				Kind:  quizsolver.KindUnknown,
				Msg:   fmt.Sprintf("API error: %s. %s", detail, billingHint),
				Code:  code,
				Cause: err,
			}
		}

		retryAfter := ""
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("Retry-After")
		}
		e := classify.Status(code, detail, retryAfter)
		e.Cause = err
		return e
	}

	classified := classify.Error(err)
	if status >= 200 && status <= 299 && classified.Kind == quizsolver.KindUnknown {
		// A 2xx body the SDK could not decode.
		return quizsolver.NewError(quizsolver.KindFormatMismatch, "", err)
	}
	return classified
}

// errorDetail picks the most specific message the API gave.
func errorDetail(apiErr *openai.Error) string {
	if msg := strings.TrimSpace(apiErr.Message); msg != "" {
		return msg
	}
	if apiErr.Code != "" {
		return apiErr.Code
	}
	if raw := strings.TrimSpace(apiErr.RawJSON()); raw != "" {
		return raw
	}
	return "Unknown error"
}
