package leave

import "errors"

var (
	ErrInsufficientQuota    = errors.New("insufficient leave quota")
	ErrReleaseExceedsUsed   = errors.New("release exceeds reserved leave days")
	ErrUnknownLeaveCategory = errors.New("leave category is not configured for this company")
	ErrQuotaNotFound        = errors.New("leave quota not found")
)
