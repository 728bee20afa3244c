package songpal

import "fmt"

// Error is the single failure kind of the device client: transport,
// HTTP status, decoding and JSON-RPC errors all surface as *Error.
type Error struct {
	Method  string
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("songpal %s: error %d: %s", e.Method, e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("songpal %s: %s", e.Method, e.Err)
	default:
		return fmt.Sprintf("songpal %s: %s", e.Method, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
