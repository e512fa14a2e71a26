package mark

import (
	"github.com/cockroachdb/errors"
)

// Wrap annotates err with msg and marks it with marker so that callers
// can classify it with markers.Is without depending on the message text.
func Wrap(err error, marker error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), marker)
}

// Message creates a new marked error from msg.
func Message(marker error, msg string) error {
	return errors.Mark(errors.New(msg), marker)
}
