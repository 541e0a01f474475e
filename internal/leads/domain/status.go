package domain

import "strings"

// Status is a lead lifecycle state.
type Status string

const (
	StatusPendingAssignment Status = "PENDING_ASSIGNMENT"
	StatusPendingFollowup   Status = "PENDING_FOLLOWUP"
	StatusFollowingUp       Status = "FOLLOWING_UP"
	StatusWon               Status = "WON"
	StatusVoid              Status = "VOID"
)

var allStatuses = []Status{
	StatusPendingAssignment,
	StatusPendingFollowup,
	StatusFollowingUp,
	StatusWon,
	StatusVoid,
}

// ParseStatus accepts the canonical upper-case names, case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range allStatuses {
		if s == candidate {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusVoid
}

// RequiresOwner reports whether a lead in s must have an assigned sales user.
func (s Status) RequiresOwner() bool {
	switch s {
	case StatusPendingFollowup, StatusFollowingUp, StatusWon:
		return true
	default:
		return false
	}
}

// IsOverridable reports whether s may be set through an activity's status override.
func (s Status) IsOverridable() bool {
	return s == StatusPendingFollowup || s == StatusFollowingUp
}

func (s Status) String() string { return string(s) }
