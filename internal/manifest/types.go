package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ApprovalStatus is the review state of one upload.
type ApprovalStatus int

const (
	StatusRejected ApprovalStatus = 0
	StatusPending  ApprovalStatus = 1
	StatusApproved ApprovalStatus = 2
)

// String returns a human-readable label for the status.
func (s ApprovalStatus) String() string {
	switch s {
	case StatusRejected:
		return "rejected"
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ConsentField is one key/value pair from an upload's consent form.
type ConsentField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UploadRecord is one asset submission, immutable once read.
type UploadRecord struct {
	ID             string
	FileName       string
	URL            string
	Checksum       string
	ApprovalStatus ApprovalStatus
	UserKey        string
	UserName       string
	ScriptData     string
	ConsentForm    []ConsentField
}

func (u *UploadRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID             flexString     `json:"id"`
		FileName       string         `json:"fileName"`
		URL            string         `json:"url"`
		Checksum       string         `json:"checksum"`
		ApprovalStatus ApprovalStatus `json:"approvalStatus"`
		UserKey        flexString     `json:"userId"`
		UserName       string         `json:"userName"`
		ScriptData     string         `json:"scriptData"`
		ConsentForm    []ConsentField `json:"consentFormData"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	u.ID = string(wire.ID)
	u.FileName = wire.FileName
	u.URL = wire.URL
	u.Checksum = wire.Checksum
	u.ApprovalStatus = wire.ApprovalStatus
	u.UserKey = string(wire.UserKey)
	u.UserName = wire.UserName
	u.ScriptData = wire.ScriptData
	u.ConsentForm = wire.ConsentForm
	return nil
}

// HasScript reports whether the upload carries a non-empty script payload.
func (u *UploadRecord) HasScript() bool {
	return strings.TrimSpace(u.ScriptData) != ""
}

// TaskGroup is a set of uploads produced under one recording prompt.
type TaskGroup struct {
	ID      string
	Name    string
	Uploads []UploadRecord
}

func (t *TaskGroup) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID      flexString     `json:"id"`
		Name    string         `json:"name"`
		Uploads []UploadRecord `json:"uploads"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	t.ID = string(wire.ID)
	t.Name = wire.Name
	t.Uploads = wire.Uploads
	return nil
}

// Rejected reports whether any member upload is rejected. Only meaningful
// for grouping releases; non-grouping uploads stand alone.
func (t *TaskGroup) Rejected() bool {
	for i := range t.Uploads {
		if t.Uploads[i].ApprovalStatus == StatusRejected {
			return true
		}
	}
	return false
}

// Pending reports whether any member upload is pending and none rejected.
func (t *TaskGroup) Pending() bool {
	if t.Rejected() {
		return false
	}
	for i := range t.Uploads {
		if t.Uploads[i].ApprovalStatus == StatusPending {
			return true
		}
	}
	return false
}

// RejectedCount returns the number of rejected member uploads.
func (t *TaskGroup) RejectedCount() int {
	count := 0
	for i := range t.Uploads {
		if t.Uploads[i].ApprovalStatus == StatusRejected {
			count++
		}
	}
	return count
}

// Release is the parsed manifest for one dataset release.
type Release struct {
	ID       string
	Name     string
	Grouping bool
	Tasks    []TaskGroup
}

func (r *Release) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID       flexString  `json:"id"`
		Name     string      `json:"name"`
		Grouping bool        `json:"groupingProject"`
		Tasks    []TaskGroup `json:"objects"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.ID = string(wire.ID)
	r.Name = wire.Name
	r.Grouping = wire.Grouping
	r.Tasks = wire.Tasks
	return nil
}

// ApprovedCountByUser tallies approved uploads per user key across the
// whole manifest. The inclusion policy compares this against the
// minimum-approved-volume threshold.
func (r *Release) ApprovedCountByUser() map[string]int {
	counts := make(map[string]int)
	for ti := range r.Tasks {
		for ui := range r.Tasks[ti].Uploads {
			upload := &r.Tasks[ti].Uploads[ui]
			if upload.ApprovalStatus == StatusApproved {
				counts[upload.UserKey]++
			}
		}
	}
	return counts
}

// flexString accepts JSON strings and numbers, normalizing both to string.
// Platform exports have used numeric ids in some releases and string ids in
// others.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
