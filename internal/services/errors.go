package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound covers missing locales, template folders, logos, and
	// absent active ads. Recoverable: skip the current unit of work.
	ErrNotFound = errors.New("not found")
	// ErrDecode covers unreadable template or logo bytes. Recoverable:
	// skip the template, continue the batch.
	ErrDecode = errors.New("decode failure")
	// ErrPlatform covers ads API query/mutation failures. Recoverable:
	// the dispatcher logs and returns an empty result.
	ErrPlatform = errors.New("platform call failure")
	// ErrUnauthorized covers platform accounts this client may not act
	// on. Recoverable, but the account lands on the blocklist so later
	// runs skip it without spending requests.
	ErrUnauthorized = errors.New("authorization rejected")
	// ErrConfiguration covers missing credentials, folder ids, and sheet
	// ids. Fatal: the run aborts before any processing begins.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation covers malformed row data such as non-numeric ids.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes pipeline context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrPlatform
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether the pipeline should log the error and move on
// to the next row, template, or creative. Only configuration errors abort
// the run.
func Recoverable(err error) bool {
	return !errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
