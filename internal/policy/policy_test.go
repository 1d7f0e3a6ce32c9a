package policy_test

import (
	"testing"

	"voxpull/internal/manifest"
	"voxpull/internal/policy"
)

var limits = policy.Thresholds{
	MinApprovedUploads:   15,
	DeliveredCap:         16,
	GroupRejectAllowance: 2,
}

func TestEvaluateUploadRuleOrder(t *testing.T) {
	cases := []struct {
		name   string
		facts  policy.UploadFacts
		admit  bool
		reason policy.Reason
	}{
		{
			name:   "blank environment wins over everything",
			facts:  policy.UploadFacts{AcousticEnvironment: "  ", ApprovedCount: 0, DeliveredCount: 99, InLedger: true},
			reason: policy.ReasonEmptyAuxiliaryMetadata,
		},
		{
			name:   "under quota",
			facts:  policy.UploadFacts{AcousticEnvironment: "Quiet", ApprovedCount: 14},
			reason: policy.ReasonInsufficientApprovedVolume,
		},
		{
			name:   "quota checked before delivery cap",
			facts:  policy.UploadFacts{AcousticEnvironment: "Quiet", ApprovedCount: 3, DeliveredCount: 20, InLedger: true},
			reason: policy.ReasonInsufficientApprovedVolume,
		},
		{
			name:   "at delivery cap",
			facts:  policy.UploadFacts{AcousticEnvironment: "Quiet", ApprovedCount: 15, DeliveredCount: 16, InLedger: true},
			reason: policy.ReasonAlreadyFullyDelivered,
		},
		{
			name:  "cap ignored without ledger entry",
			facts: policy.UploadFacts{AcousticEnvironment: "Quiet", ApprovedCount: 15, DeliveredCount: 0, InLedger: false},
			admit: true,
		},
		{
			name:  "admitted",
			facts: policy.UploadFacts{AcousticEnvironment: "Noisy", ApprovedCount: 15, DeliveredCount: 15, InLedger: true},
			admit: true,
		},
	}

	for _, tc := range cases {
		decision := policy.EvaluateUpload(tc.facts, limits)
		if decision.Admit != tc.admit {
			t.Errorf("%s: Admit = %v, want %v", tc.name, decision.Admit, tc.admit)
		}
		if !tc.admit && decision.Reason != tc.reason {
			t.Errorf("%s: Reason = %q, want %q", tc.name, decision.Reason, tc.reason)
		}
	}
}

func rejectedGroup(rejected, approved int) *manifest.TaskGroup {
	group := &manifest.TaskGroup{}
	for i := 0; i < rejected; i++ {
		group.Uploads = append(group.Uploads, manifest.UploadRecord{ApprovalStatus: manifest.StatusRejected})
	}
	for i := 0; i < approved; i++ {
		group.Uploads = append(group.Uploads, manifest.UploadRecord{ApprovalStatus: manifest.StatusApproved})
	}
	return group
}

func TestSkipGroupGate(t *testing.T) {
	cases := []struct {
		name           string
		group          *manifest.TaskGroup
		grouping       bool
		ignoreRejected bool
		skip           bool
	}{
		{"large rejection dropped", rejectedGroup(3, 5), true, true, true},
		{"incidental rejection processed", rejectedGroup(1, 5), true, true, false},
		{"at allowance processed", rejectedGroup(2, 5), true, true, false},
		{"ignore-rejected off", rejectedGroup(5, 0), true, false, false},
		{"non-grouping never gated", rejectedGroup(5, 0), false, true, false},
		{"clean group passes", rejectedGroup(0, 5), true, true, false},
	}

	for _, tc := range cases {
		if got := policy.SkipGroup(tc.group, tc.grouping, tc.ignoreRejected, limits); got != tc.skip {
			t.Errorf("%s: SkipGroup = %v, want %v", tc.name, got, tc.skip)
		}
	}
}
