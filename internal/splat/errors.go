package splat

import "errors"

// downloadError signals a failed or partial checkpoint download.
type downloadError struct{ err error }

func (e downloadError) Error() string { return "splat checkpoint download: " + e.err.Error() }
func (e downloadError) Unwrap() error { return e.err }

// IsDownloadFailure reports whether err came from a failed checkpoint download.
func IsDownloadFailure(err error) bool {
	var e downloadError
	return errors.As(err, &e)
}

// inferenceError signals a failed splat generation call.
type inferenceError struct{ err error }

func (e inferenceError) Error() string { return "splat inference: " + e.err.Error() }
func (e inferenceError) Unwrap() error { return e.err }

// IsInferenceFailure reports whether err came from failed splat inference.
func IsInferenceFailure(err error) bool {
	var e inferenceError
	return errors.As(err, &e)
}

// busyError signals a mutation attempted while another transition or an
// in-flight prediction holds the manager.
type busyError struct{ op string }

func (e busyError) Error() string { return "splat manager busy: " + e.op }

// IsBusy reports whether err indicates a rejected concurrent mutation.
func IsBusy(err error) bool {
	var e busyError
	return errors.As(err, &e)
}
