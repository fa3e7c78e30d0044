package units

import (
	"errors"
	"fmt"
)

// MismatchError reports a conversion between units of different unit groups,
// for which no factor is defined. Fatal for the single resolution that
// asked; never retried.
type MismatchError struct {
	From      string
	To        string
	FromGroup string
	ToGroup   string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("UNIT_MISMATCH: no conversion from %q (%s) to %q (%s)",
		e.From, e.FromGroup, e.To, e.ToGroup)
}

// IsMismatch reports whether err is a cross-group unit conversion failure.
// Uses errors.As to handle wrapped errors.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}
