package utils

import (
	"fmt"

	"github.com/getsentry/sentry-go"
)

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(accountID uint, path string) string {
	return fmt.Sprintf("rl:%d:%s", accountID, path)
}

// ReportError forwards server-side failures to Sentry when configured.
func ReportError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
