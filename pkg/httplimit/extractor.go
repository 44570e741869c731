package httplimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Extractor derives the rate limit identifier from an HTTP request.
// Implementations should only look at data that is cheap and
// side-effect free to read (headers, remote address), never the body.
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

type headerExtractor struct {
	headers []string
}

// NewHeaderExtractor builds the identifier by joining the values of
// the given headers. Pick headers that are unique per client.
func NewHeaderExtractor(headers ...string) Extractor {
	return &headerExtractor{headers: headers}
}

func (h *headerExtractor) Extract(r *http.Request) (string, error) {
	values := make([]string, 0, len(h.headers))

	for _, key := range h.headers {
		value := strings.TrimSpace(r.Header.Get(key))
		if value == "" {
			return "", fmt.Errorf("the header %v must have a value set", key)
		}
		values = append(values, value)
	}

	return strings.Join(values, "-"), nil
}

type remoteAddrExtractor struct{}

// NewRemoteAddrExtractor identifies clients by their peer IP,
// preferring the first X-Forwarded-For hop when a proxy added one.
func NewRemoteAddrExtractor() Extractor {
	return &remoteAddrExtractor{}
}

func (remoteAddrExtractor) Extract(r *http.Request) (string, error) {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first, nil
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("cannot derive client address from %q: %w", r.RemoteAddr, err)
	}
	return host, nil
}
