package envelope

import (
	"errors"

	"github.com/tinylib/msgp/msgp"
)

// RemoteError is an error restored from its serialized form. Only messages survive the round
// trip: the concrete types of the original chain are not preserved.
type RemoteError struct {
	Message string
	Cause   error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

func appendError(dst []byte, err error) []byte {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}

	dst = msgp.AppendArrayHeader(dst, uint32(len(chain)))
	for _, msg := range chain {
		dst = msgp.AppendString(dst, msg)
	}
	return dst
}

func readError(data []byte) (*RemoteError, error) {
	n, data, err := msgp.ReadArrayHeaderBytes(data)
	if err != nil {
		return nil, err
	}
	// Every message takes at least one byte.
	if n == 0 || n > uint32(len(data)) {
		return nil, ErrTruncated
	}

	chain := make([]string, n)
	for i := range chain {
		chain[i], data, err = msgp.ReadStringBytes(data)
		if err != nil {
			return nil, err
		}
	}
	if len(data) != 0 {
		return nil, ErrTrailingBytes
	}

	var cause *RemoteError
	for i := len(chain) - 1; i >= 0; i-- {
		next := &RemoteError{Message: chain[i]}
		if cause != nil {
			next.Cause = cause
		}
		cause = next
	}
	return cause, nil
}
