package retry

import "github.com/spetersoncode/quizsolver/internal/classify"

// IsTransient determines if an error is transient and should be retried.
// Only timeouts and transport failures qualify: credential problems, rate
// limits, shape mismatches and torn-down contexts are never fixed by asking
// again.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return classify.Error(err).Transient()
}
