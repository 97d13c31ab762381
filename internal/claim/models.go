package claim

// State is a position in the claim flow.
type State string

const (
	StateCheckingSession      State = "checking-session"
	StateAuthenticating       State = "authenticating"
	StateAwaitingCallback     State = "awaiting-callback"
	StateResolvingDestination State = "resolving-destination"
	StateBindingMetadata      State = "binding-metadata"
	StateRedirecting          State = "redirecting"
	StateFailed               State = "failed"
)

// Failure reasons surfaced verbatim to the claimer. Retry is a
// user-initiated reload, never automatic.
const (
	ReasonSessionCheckError  = "session-check-error"
	ReasonNoDestination      = "no-destination"
	ReasonNoPassToken        = "no-pass-token"
	ReasonMetadataWriteError = "metadata-write-error"
	ReasonMissingSubjectID   = "missing-subject-id"
	ReasonMissingClaimCode   = "missing-claim-code"
)

// Result is the terminal outcome of a flow.
type Result struct {
	State       State  `json:"state"`
	Destination string `json:"destination,omitempty"`
	PassToken   string `json:"pass_token,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
