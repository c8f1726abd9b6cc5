package trace

import "net/http"

// Transport injects trace headers into outgoing provider requests.
type Transport struct {
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	tc, ok := FromContext(req.Context())
	if !ok {
		return base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set(TraceIDKey, tc.TraceID)
	req.Header.Set(SpanIDKey, tc.SpanID)
	return base.RoundTrip(req)
}

// NewHTTPClient returns an http.Client that propagates trace headers.
func NewHTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	c := *base
	c.Transport = &Transport{Base: base.Transport}
	return &c
}
