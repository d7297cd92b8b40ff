package metrics

// Recorder receives client-side events worth counting. Implementations must be
// safe for concurrent use.
type Recorder interface {
	// RecordRequest records one round trip; status is 0 for transport failures.
	RecordRequest(method string, status int)

	// RecordAcquisition records a priming call and whether a token turned up.
	RecordAcquisition(success bool)

	// RecordReplay records a token-mismatch replay: "replayed" or "exhausted".
	RecordReplay(outcome string)

	// RecordRedirect records a scheduled navigation to the login route.
	RecordRedirect()

	// RecordSilent records an error tagged silent: "logout" or "duplicate".
	RecordSilent(reason string)
}

type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) RecordRequest(string, int) {}
func (Noop) RecordAcquisition(bool)    {}
func (Noop) RecordReplay(string)       {}
func (Noop) RecordRedirect()           {}
func (Noop) RecordSilent(string)       {}
