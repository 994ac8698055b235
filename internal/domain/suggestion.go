package domain

// AssignmentSuggestion 是自动排班给出的建议，不会直接写入
type AssignmentSuggestion struct {
	SnapshotID int64 `json:"snapshotID"`
	Assignee   int64 `json:"assignee"`
}
