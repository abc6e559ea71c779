package custom

import (
	"fmt"
	"strings"

	"github.com/spetersoncode/quizsolver"
)

// ProbeAttempt records one path+schema trial against an endpoint.
type ProbeAttempt struct {
	Path   string
	Schema Schema
	Status int // 0 when no response arrived
	Kind   quizsolver.ErrorKind
	Detail string
}

// Reason describes why the attempt did not produce an answer.
func (a ProbeAttempt) Reason() string {
	switch {
	case a.Status != 0 && a.Detail != "":
		return fmt.Sprintf("%d %s", a.Status, a.Detail)
	case a.Status != 0:
		return fmt.Sprintf("%d", a.Status)
	case a.Detail != "":
		return a.Detail
	default:
		return string(a.Kind)
	}
}

// DiscoveryError is returned when no candidate produced an answer, either
// because every one failed or because one failed in a way no other path
// can fix. Err carries the classification.
type DiscoveryError struct {
	Endpoint string
	Attempts []ProbeAttempt
	Err      *quizsolver.Error
}

func (e *DiscoveryError) Error() string {
	return e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// exhausted builds the aggregate error after every candidate failed.
// The kind is shared when every attempt failed the same way.
func exhausted(endpoint string, attempts []ProbeAttempt) *DiscoveryError {
	kind := quizsolver.KindUnknown
	if len(attempts) > 0 {
		kind = attempts[0].Kind
		for _, a := range attempts[1:] {
			if a.Kind != kind {
				kind = quizsolver.KindUnknown
				break
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Custom endpoint did not answer on any of %d paths:", len(attempts))
	for _, a := range attempts {
		fmt.Fprintf(&b, "\n- %s (%s): %s", a.Path, a.Schema, a.Reason())
	}

	return &DiscoveryError{
		Endpoint: endpoint,
		Attempts: attempts,
		Err:      &quizsolver.Error{Kind: kind, Msg: b.String()},
	}
}
