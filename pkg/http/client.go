package http

import (
	"net"
	"net/http"
	"time"
)

type TransportFunc func(http.RoundTripper) http.RoundTripper

const tlsHandshakeTimeout = 10 * time.Second

type httpConfig struct {
	timeouts            Timeouts
	maxIdleConnsPerHost int
	transports          []TransportFunc
}

// Model endpoints answer slowly on cold start, hence the long header wait.
func defaultHTTPConfig() *httpConfig {
	return &httpConfig{
		timeouts: Timeouts{
			Request:        30 * time.Second,
			Connect:        10 * time.Second,
			KeepAlive:      90 * time.Second,
			IdleConn:       90 * time.Second,
			ResponseHeader: 60 * time.Second,
		},
		maxIdleConnsPerHost: 10,
	}
}

func newClient(opts ...HttpOpts) *http.Client {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.timeouts.Connect,
		KeepAlive: cfg.timeouts.KeepAlive,
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.maxIdleConnsPerHost,
		MaxIdleConnsPerHost:   cfg.maxIdleConnsPerHost,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: cfg.timeouts.ResponseHeader,
		IdleConnTimeout:       cfg.timeouts.IdleConn,
		ForceAttemptHTTP2:     true,
	}

	for _, wrap := range cfg.transports {
		transport = wrap(transport)
	}

	return &http.Client{
		Timeout:   cfg.timeouts.Request,
		Transport: transport,
	}
}
