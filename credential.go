package quizsolver

import (
	"regexp"
	"strings"
)

var (
	absoluteURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^\s/]+`)
	bareHost    = regexp.MustCompile(`^(localhost|([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}|\d{1,3}(\.\d{1,3}){3})(:\d+)?(/\S*)?$`)
)

// Sniff decides which provider a stored secret belongs to. URL-like and
// hostname-like strings are custom endpoints regardless of the selection;
// anything else is a key for the selected provider.
func Sniff(raw string, selected Provider) Provider {
	s := strings.TrimSpace(raw)
	if absoluteURL.MatchString(s) || bareHost.MatchString(s) {
		return ProviderCustom
	}
	if selected == "" {
		return DefaultProvider
	}
	return selected
}

// Credential is the secret supplied by the user, tagged with the provider
// it was classified as.
type Credential struct {
	Raw      string
	Provider Provider
}

// NewCredential tags raw using Sniff.
func NewCredential(raw string, selected Provider) Credential {
	raw = strings.TrimSpace(raw)
	return Credential{Raw: raw, Provider: Sniff(raw, selected)}
}

// Empty reports whether no secret is set.
func (c Credential) Empty() bool {
	return c.Raw == ""
}

// Masked returns the secret with its middle elided for display.
func (c Credential) Masked() string {
	if len(c.Raw) <= 12 {
		return strings.Repeat("*", len(c.Raw))
	}
	return c.Raw[:8] + "..." + c.Raw[len(c.Raw)-4:]
}

// String masks the secret so credentials never end up in logs verbatim.
func (c Credential) String() string {
	return string(c.Provider) + ":" + c.Masked()
}
