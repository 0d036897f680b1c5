package models

// NotificationTarget is one address/credential pair on the external
// messaging gateway. Statically configured, read-only at runtime.
type NotificationTarget struct {
	ChannelID  string `json:"channel_id"`
	Address    string `json:"address"`
	Credential string `json:"-"`
}

// Failure causes for a delivery attempt. A timeout is a distinct cause
// from a gateway rejection.
const (
	CauseTimeout  = "timeout"
	CauseRejected = "rejected"
	CauseNetwork  = "network"
)

// DeliveryAttemptResult records one attempt against one target or
// fallback step.
type DeliveryAttemptResult struct {
	ChannelID   string `json:"channel_id"`
	Step        string `json:"step"`
	Succeeded   bool   `json:"succeeded"`
	RawResponse string `json:"raw_response,omitempty"`
	Cause       string `json:"cause,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DeliveryReport aggregates the attempts of one dispatch. Partial failure
// is not an overall failure: AnySucceeded is true when at least one
// attempt succeeded.
type DeliveryReport struct {
	AnySucceeded bool                    `json:"any_succeeded"`
	Attempts     []DeliveryAttemptResult `json:"attempts"`
}
