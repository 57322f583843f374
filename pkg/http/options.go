package http

import "time"

type HttpOpts func(*httpConfig)

// Timeouts bounds the phases of an outbound call. Zero fields keep the
// client defaults.
type Timeouts struct {
	Request        time.Duration
	Connect        time.Duration
	KeepAlive      time.Duration
	IdleConn       time.Duration
	ResponseHeader time.Duration
}

func (t Timeouts) merge(over Timeouts) Timeouts {
	pick := func(base, v time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return base
	}

	return Timeouts{
		Request:        pick(t.Request, over.Request),
		Connect:        pick(t.Connect, over.Connect),
		KeepAlive:      pick(t.KeepAlive, over.KeepAlive),
		IdleConn:       pick(t.IdleConn, over.IdleConn),
		ResponseHeader: pick(t.ResponseHeader, over.ResponseHeader),
	}
}

func WithTimeouts(t Timeouts) HttpOpts {
	return func(c *httpConfig) {
		c.timeouts = c.timeouts.merge(t)
	}
}

// WithMaxIdleConnsPerHost sizes the keep-alive pool. Every connector talks
// to a single host.
func WithMaxIdleConnsPerHost(maxConns int) HttpOpts {
	return func(c *httpConfig) {
		if maxConns > 0 {
			c.maxIdleConnsPerHost = maxConns
		}
	}
}

// WithTransport wraps the round tripper; wrappers apply in order, the last
// one sees the request first.
func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) {
		c.transports = append(c.transports, transport)
	}
}
