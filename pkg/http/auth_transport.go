package http

import "net/http"

type authTransport struct {
	scheme    string
	token     string
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token == "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set("Authorization", t.scheme+" "+t.token)

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken adds a bearer Authorization header to every request.
// An empty token leaves requests untouched.
func WithAuthToken(token string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			scheme:    "Bearer",
			token:     token,
			transport: rt,
		}
	})
}
