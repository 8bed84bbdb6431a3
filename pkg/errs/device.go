package errs

import "errors"

var (
	ErrDeviceNotFound          error = errors.New("device not found")
	ErrDeviceAlreadyExists     error = errors.New("device already exists")
	ErrDeviceNotProvisioned    error = errors.New("device is not provisioned")
	ErrDeviceAlreadyProvisioned error = errors.New("device is already provisioned")
	ErrDeviceAlreadyRegistered error = errors.New("device is already registered to another user")
	ErrDeviceNotResponding     error = errors.New("device has not sent a heartbeat recently")

	ErrCertificateNotFound         error = errors.New("certificate not found")
	ErrCertificateStatusTransition error = errors.New("new status transition not allowed for certificate")

	ErrCommandNotFound error = errors.New("command not found")

	ErrProductNotFound error = errors.New("product not found")

	ErrValidateBadRequest error = errors.New("struct validation error")
)
