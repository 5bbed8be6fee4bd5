package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session routing/state.
	ErrSessionBusy     = "E_SESSION_BUSY"
	ErrSessionNotFound = "E_SESSION_NOT_FOUND"

	// Event layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSessionBusy:     {},
	ErrSessionNotFound: {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
