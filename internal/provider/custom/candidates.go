package custom

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Schema names a request-body convention.
type Schema string

const (
	// SchemaA is the generateContent body: contents/parts plus generationConfig.
	SchemaA Schema = "schemaA"

	// SchemaB is the chat-completions body: model/messages.
	SchemaB Schema = "schemaB"
)

// Candidates are the path suffixes tried against an endpoint, in order.
// The order is inherited and must not be rearranged: it decides which
// backend shape a server that answers several of them is spoken to in.
var Candidates = []string{
	"/v1beta/models/gemini-2.0-flash:generateContent",
	"/v1/models/gemini-2.0-flash:generateContent",
	"/models/gemini-2.0-flash:generateContent",
	"/v1/chat/completions",
	"/chat/completions",
	"",
}

var plainHost = regexp.MustCompile(`^(localhost|\d{1,3}(\.\d{1,3}){3})(:\d+)?$`)

// SchemaFor picks the body schema from the request path.
func SchemaFor(path string) Schema {
	if strings.Contains(path, "generateContent") {
		return SchemaA
	}
	return SchemaB
}

// normalize parses an endpoint and strips trailing slashes from its path.
// Bare hosts get a scheme: http for localhost and IP literals, https otherwise.
func normalize(endpoint string) (*url.URL, error) {
	s := strings.TrimSpace(endpoint)
	if !strings.Contains(s, "://") {
		host, _, _ := strings.Cut(s, "/")
		if plainHost.MatchString(host) {
			s = "http://" + s
		} else {
			s = "https://" + s
		}
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse endpoint %q: missing host", endpoint)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.Fragment = ""
	return u, nil
}

// resolve appends suffix to base's path, keeping the query string.
func resolve(base *url.URL, suffix string) *url.URL {
	u := *base
	u.Path = base.Path + suffix
	if u.Path == "" {
		u.Path = "/"
	}
	return &u
}
