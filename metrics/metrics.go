// Package metrics records issuance, validation, and revocation events. The
// Prometheus implementation registers on a registerer supplied by the host;
// NewNoopRecorder gives hosts that do not scrape a zero-overhead stand-in.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is implemented by metric sinks for the authorization and resource
// servers.
type Recorder interface {
	// RecordTokenIssued records an issued token by category and grant type.
	RecordTokenIssued(tokenType, grantType string, duration time.Duration)

	// RecordTokenValidation records a resource-server validation outcome
	// ("success", "invalid", "expired", "insufficient_scope", "error").
	RecordTokenValidation(result string, duration time.Duration)

	// RecordTokenRevoked records a revocation by category.
	RecordTokenRevoked(tokenType string)

	// RecordTokenRefresh records a refresh-token exchange outcome.
	RecordTokenRefresh(success bool)

	// RecordAuthorizationCodeIssued records an authorization-step outcome.
	RecordAuthorizationCodeIssued(success bool)
}

// Ensure Metrics implements Recorder at compile time.
var _ Recorder = (*Metrics)(nil)

// Metrics is the Prometheus-backed Recorder.
type Metrics struct {
	tokensIssuedTotal       *prometheus.CounterVec
	tokenIssueDuration      *prometheus.HistogramVec
	tokenValidationTotal    *prometheus.CounterVec
	tokenValidationDuration prometheus.Histogram
	tokensRevokedTotal      *prometheus.CounterVec
	tokenRefreshTotal       *prometheus.CounterVec
	authCodesIssuedTotal    *prometheus.CounterVec
}

// New registers the OAuth metrics on reg and returns the recorder. Pass
// prometheus.DefaultRegisterer unless the host isolates registries.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		tokensIssuedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_tokens_issued_total",
			Help: "Total number of tokens issued, by token type and grant type",
		}, []string{"token_type", "grant_type"}),

		tokenIssueDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oauth_token_issue_duration_seconds",
			Help:    "Time taken to issue tokens, by grant type",
			Buckets: prometheus.DefBuckets,
		}, []string{"grant_type"}),

		tokenValidationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_token_validation_total",
			Help: "Total number of resource-server token validations, by result",
		}, []string{"result"}),

		tokenValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "oauth_token_validation_duration_seconds",
			Help:    "Time taken to validate bearer tokens",
			Buckets: prometheus.DefBuckets,
		}),

		tokensRevokedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_tokens_revoked_total",
			Help: "Total number of tokens revoked, by token type",
		}, []string{"token_type"}),

		tokenRefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_token_refresh_total",
			Help: "Total number of refresh-token exchanges, by result",
		}, []string{"result"}),

		authCodesIssuedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_authorization_codes_issued_total",
			Help: "Total number of authorization codes issued, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordTokenIssued(tokenType, grantType string, duration time.Duration) {
	m.tokensIssuedTotal.WithLabelValues(tokenType, grantType).Inc()
	m.tokenIssueDuration.WithLabelValues(grantType).Observe(duration.Seconds())
}

func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.tokenValidationTotal.WithLabelValues(result).Inc()
	m.tokenValidationDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordTokenRevoked(tokenType string) {
	m.tokensRevokedTotal.WithLabelValues(tokenType).Inc()
}

func (m *Metrics) RecordTokenRefresh(success bool) {
	m.tokenRefreshTotal.WithLabelValues(boolResult(success)).Inc()
}

func (m *Metrics) RecordAuthorizationCodeIssued(success bool) {
	m.authCodesIssuedTotal.WithLabelValues(boolResult(success)).Inc()
}

func boolResult(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
