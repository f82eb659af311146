package manager

import "errors"

// variantNotFoundError signals a request for a key absent from the catalog.
type variantNotFoundError struct{ key string }

func (e variantNotFoundError) Error() string { return "unknown model variant: " + e.key }

// ErrVariantNotFound constructs a variantNotFoundError.
func ErrVariantNotFound(key string) error { return variantNotFoundError{key: key} }

// IsVariantNotFound reports whether the error indicates an unknown catalog key.
func IsVariantNotFound(err error) bool {
	var e variantNotFoundError
	return errors.As(err, &e)
}

// loadError signals that backend instantiation failed; the manager reverts to
// unloaded when it occurs.
type loadError struct {
	key string
	err error
}

func (e loadError) Error() string { return "load model " + e.key + ": " + e.err.Error() }
func (e loadError) Unwrap() error { return e.err }

// IsLoadFailure reports whether err came from a failed model load.
func IsLoadFailure(err error) bool {
	var e loadError
	return errors.As(err, &e)
}

// inferenceError signals a per-call prediction failure, including lazy-load
// failures surfaced from inside Predict.
type inferenceError struct{ err error }

func (e inferenceError) Error() string { return "inference: " + e.err.Error() }
func (e inferenceError) Unwrap() error { return e.err }

// IsInferenceFailure reports whether err came from a failed prediction.
func IsInferenceFailure(err error) bool {
	var e inferenceError
	return errors.As(err, &e)
}

// busyError signals a mutation attempted while another transition or an
// in-flight prediction holds the manager.
type busyError struct{ op string }

func (e busyError) Error() string { return "manager busy: " + e.op }

// ErrBusy constructs a busyError for the named operation.
func ErrBusy(op string) error { return busyError{op: op} }

// IsBusy reports whether err indicates a rejected concurrent mutation.
func IsBusy(err error) bool {
	var e busyError
	return errors.As(err, &e)
}

// downloadError signals a failed weight download.
type downloadError struct {
	key string
	err error
}

func (e downloadError) Error() string { return "download model " + e.key + ": " + e.err.Error() }
func (e downloadError) Unwrap() error { return e.err }

// IsDownloadFailure reports whether err came from a failed weight download.
func IsDownloadFailure(err error) bool {
	var e downloadError
	return errors.As(err, &e)
}
