package launch

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers branch on Kind, never on message strings. Fatal kinds abort the
// run with a non-zero exit; recovered kinds are absorbed where they occur
// and only logged.
type Kind string

const (
	// KindUserAbort is the operator choosing to quit at the mode prompt.
	// It is a control-flow signal, not a failure; runs ending here exit 0.
	KindUserAbort Kind = "UserAbort"

	// KindMissingDependencyTool means an explicitly configured external
	// tool is not present. Fatal.
	KindMissingDependencyTool Kind = "MissingDependencyTool"
	// KindMissingArtifact means the required bootstrap artifact does not
	// exist. Fatal.
	KindMissingArtifact Kind = "MissingArtifact"
	// KindMissingExecutable means the node executable does not exist. Fatal.
	KindMissingExecutable Kind = "MissingExecutable"

	// KindNegotiationFailed is a failed NAT negotiation; the run proceeds
	// without inbound p2p reachability.
	KindNegotiationFailed Kind = "NegotiationFailed"
	// KindInvalidOperatorInput is unrecognized interactive input; the
	// prompt repeats.
	KindInvalidOperatorInput Kind = "InvalidOperatorInput"
	// KindMalformedDiscoveryResponse is a bad echo-service response,
	// treated as "no public address".
	KindMalformedDiscoveryResponse Kind = "MalformedDiscoveryResponse"
)

// Error is the launcher's structured error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Fatal reports whether err must abort the run with a non-zero exit.
func Fatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		// Unclassified errors are treated as fatal.
		return err != nil
	}
	switch e.Kind {
	case KindMissingDependencyTool, KindMissingArtifact, KindMissingExecutable:
		return true
	default:
		return false
	}
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}
