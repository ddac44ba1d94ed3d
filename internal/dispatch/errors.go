package dispatch

import "errors"

// ErrBusy is returned when a dispatch is attempted while another is pending.
var ErrBusy = errors.New("dispatcher busy: a mutation is already pending")

// IsBusy returns true if err is or wraps ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
