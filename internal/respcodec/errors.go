package respcodec

import "errors"

// ErrProtocol marks a frame that violates RESP-2 framing rules and can
// never be completed by reading more bytes.
var ErrProtocol = errors.New("respcodec: protocol violation")

// ErrLimitExceeded marks a frame that is syntactically well-formed but
// exceeds a configured protocol limit (array arity, bulk length, inline
// command length).
var ErrLimitExceeded = errors.New("respcodec: limit exceeded")
