package metrics

import "time"

// NoopRecorder is a no-operation Recorder for hosts that do not scrape
// metrics.
type NoopRecorder struct{}

// Ensure NoopRecorder implements Recorder at compile time.
var _ Recorder = (*NoopRecorder)(nil)

// NewNoopRecorder creates a no-operation metrics recorder.
func NewNoopRecorder() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) RecordTokenIssued(tokenType, grantType string, duration time.Duration) {}
func (n *NoopRecorder) RecordTokenValidation(result string, duration time.Duration)           {}
func (n *NoopRecorder) RecordTokenRevoked(tokenType string)                                   {}
func (n *NoopRecorder) RecordTokenRefresh(success bool)                                       {}
func (n *NoopRecorder) RecordAuthorizationCodeIssued(success bool)                            {}
