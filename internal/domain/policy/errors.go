package policy

import "errors"

var (
	ErrPolicyNotFound = errors.New("attendance policy not found for this company")
	ErrPolicyConflict = errors.New("attendance policy was modified concurrently")
)
