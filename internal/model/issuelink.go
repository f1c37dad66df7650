package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IssueState mirrors the lifecycle of the linked tracker issue.
type IssueState string

const (
	IssueStateOpen       IssueState = "Open"
	IssueStateClosed     IssueState = "Closed"
	IssueStateInProgress IssueState = "InProgress"
	IssueStateResolved   IssueState = "Resolved"
)

var issueStates = []IssueState{
	IssueStateOpen,
	IssueStateClosed,
	IssueStateInProgress,
	IssueStateResolved,
}

// ParseIssueState matches s against the known states ignoring case.
// Anything unrecognised is treated as Open.
func ParseIssueState(s string) IssueState {
	s = strings.TrimSpace(s)
	for _, state := range issueStates {
		if strings.EqualFold(s, string(state)) {
			return state
		}
	}
	return IssueStateOpen
}

// IssueLink is the stored read of an external issue. At most one exists
// per task and it is removed together with the task.
type IssueLink struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TaskID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	IssueURL       string    `gorm:"column:issue_url;not null"`
	IssueNumber    string    `gorm:"not null;size:64"`
	IssueTitle     string
	IssueState     IssueState `gorm:"type:varchar(16);not null;default:'Open'"`
	IssueCreatedAt time.Time
	IssueUpdatedAt *time.Time
}
