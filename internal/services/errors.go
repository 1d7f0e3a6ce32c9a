package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks per-upload failures (network fetch errors) that are
	// aggregated into the end-of-run summary instead of stopping the run.
	ErrTransient = errors.New("transient failure")

	// ErrConfiguration marks unusable configuration or CLI input.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation marks manifest or lookup input that cannot be processed.
	ErrValidation = errors.New("validation error")

	// ErrMissingFact marks an admitted upload lacking a required consent
	// fact (gender or age). Fatal: downstream consumers need both fields.
	ErrMissingFact = errors.New("missing required fact")

	// ErrLookupMiss marks a script payload with no entry in any topic table.
	ErrLookupMiss = errors.New("lookup miss")

	// ErrSlotExhausted marks a third background-probe recording for one
	// speaker; the naming scheme only defines two slots.
	ErrSlotExhausted = errors.New("slot exhausted")

	// ErrMalformedPayload marks a script payload that does not match the
	// wrapper format.
	ErrMalformedPayload = errors.New("malformed script payload")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the run without persisting
// the ledger. Transient failures are the only class the driver tolerates.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrTransient)
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
