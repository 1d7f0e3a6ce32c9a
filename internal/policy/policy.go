// Package policy decides, per upload and per task group, whether material
// is admitted into the current release's dataset. Decisions are pure
// functions of the supplied facts; the driver owns all side effects.
package policy

import (
	"strings"

	"voxpull/internal/manifest"
)

// Reason labels why an upload or group was skipped.
type Reason string

const (
	ReasonEmptyAuxiliaryMetadata     Reason = "empty_auxiliary_metadata"
	ReasonInsufficientApprovedVolume Reason = "insufficient_approved_volume"
	ReasonAlreadyFullyDelivered      Reason = "already_fully_delivered"
	ReasonGroupRejected              Reason = "group_rejected"
)

// Decision is the outcome of evaluating one upload.
type Decision struct {
	Admit  bool
	Reason Reason
}

// Thresholds carries the configured inclusion limits.
type Thresholds struct {
	// MinApprovedUploads is the manifest-wide approved-upload floor below
	// which a contributor is excluded entirely.
	MinApprovedUploads int
	// DeliveredCap excludes contributors whose ledger delivered count has
	// already reached it.
	DeliveredCap int
	// GroupRejectAllowance is the rejected-member count at or below which a
	// rejected grouping task is still processed upload-by-upload.
	GroupRejectAllowance int
}

// UploadFacts are the per-upload inputs the evaluator consumes. The caller
// resolves lookups and ledger state; the evaluator only judges.
type UploadFacts struct {
	// AcousticEnvironment is the value from the acoustic-environment lookup,
	// blank when the lookup missed or the CSV row was empty.
	AcousticEnvironment string
	// ApprovedCount is the user's total approved uploads across the whole
	// manifest.
	ApprovedCount int
	// DeliveredCount is the ledger's delivered count for the user; zero when
	// the user has no ledger entry.
	DeliveredCount int
	// InLedger reports whether the user has a persisted ledger entry.
	InLedger bool
}

// EvaluateUpload applies the per-upload rules in order; first match wins.
func EvaluateUpload(facts UploadFacts, limits Thresholds) Decision {
	if strings.TrimSpace(facts.AcousticEnvironment) == "" {
		return Decision{Reason: ReasonEmptyAuxiliaryMetadata}
	}
	if facts.ApprovedCount < limits.MinApprovedUploads {
		return Decision{Reason: ReasonInsufficientApprovedVolume}
	}
	if facts.InLedger && facts.DeliveredCount >= limits.DeliveredCap {
		return Decision{Reason: ReasonAlreadyFullyDelivered}
	}
	return Decision{Admit: true}
}

// SkipGroup is the task-group gate. A rejected grouping task is skipped
// wholesale when ignore-rejected is set, unless its rejected-member count
// is within the allowance; groups with only incidental rejections are
// still processed upload-by-upload. Passing the gate does not exempt the
// group's uploads from EvaluateUpload.
func SkipGroup(group *manifest.TaskGroup, grouping, ignoreRejected bool, limits Thresholds) bool {
	if !grouping || !ignoreRejected {
		return false
	}
	if !group.Rejected() {
		return false
	}
	return group.RejectedCount() > limits.GroupRejectAllowance
}
