package validation

// Error is a client-facing validation failure. Message is returned to the
// caller verbatim.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(msg string) *Error {
	return &Error{Message: msg}
}

const (
	MsgMissingName       = "Missing name"
	MsgMissingType       = "Missing type"
	MsgMissingData       = "Missing data"
	MsgParentNotFound    = "Parent not found"
	MsgParentNotFolder   = "Parent is not a folder"
	MsgInvalidData       = "Invalid data"
	MsgMissingEmail      = "Missing email"
	MsgMissingPassword   = "Missing password"
	MsgPasswordTooLong   = "Password too long"
	MsgInvalidEmail      = "Invalid email"
	MsgEmailAlreadyExist = "Already exist"
)
