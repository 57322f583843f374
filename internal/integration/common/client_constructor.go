package common

import (
	"strings"

	"github.com/vitiscan/treatment-plan/internal/config"
	pkgHTTP "github.com/vitiscan/treatment-plan/pkg/http"
)

// NewBaseConnector builds the shared JSON connector used by the LLM,
// embedding and Weaviate integrations.
func NewBaseConnector(cfg config.HTTPClientConfig) *pkgHTTP.Connector {
	return pkgHTTP.NewConnector(
		&pkgHTTP.ConnectorConfig{BaseURL: strings.TrimRight(cfg.Url, "/")},
		pkgHTTP.WithTimeouts(pkgHTTP.Timeouts{
			Request:        cfg.RequestTimeout,
			Connect:        cfg.ConnTimeout,
			KeepAlive:      cfg.KeepAlive,
			IdleConn:       cfg.IdleConnTimeout,
			ResponseHeader: cfg.ResponseHeaderTimeout,
		}),
		pkgHTTP.WithMaxIdleConnsPerHost(cfg.MaxIdleConns),
		pkgHTTP.WithAuthToken(cfg.Token),
		pkgHTTP.WithRequestLogging(),
	)
}
