package errs

import "fmt"

// IdentityPlatformError annotates a failed identity platform call with the
// step that failed so callers can record provisioning failures accurately.
type IdentityPlatformError struct {
	Step string
	Err  error
}

func (e *IdentityPlatformError) Error() string {
	return fmt.Sprintf("identity platform error at step '%s': %s", e.Step, e.Err)
}

func (e *IdentityPlatformError) Unwrap() error {
	return e.Err
}

// StorageError annotates a failed blob storage call with the operation and
// object key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error while executing '%s' on '%s': %s", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
