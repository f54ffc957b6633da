package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrOccupied      = "E_OCCUPIED"
	ErrNotFound      = "E_NOT_FOUND"
	ErrNoFunds       = "E_NO_FUNDS"
	ErrNoCredit      = "E_NO_CREDIT"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrOccupied:        {},
	ErrNotFound:        {},
	ErrNoFunds:         {},
	ErrNoCredit:        {},
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
