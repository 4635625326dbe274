package domain

import (
	"fmt"
	"strings"
)

// ModerationStatus is the lifecycle state of a user-submitted review or comment
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "PENDING"
	StatusApproved ModerationStatus = "APPROVED"
	StatusRejected ModerationStatus = "REJECTED"
)

// transitions lists the statuses reachable from each status. Self-transitions are always allowed.
var transitions = map[ModerationStatus][]ModerationStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRejected},
	StatusRejected: {StatusApproved},
}

// IsValid reports whether s is a known status
func (s ModerationStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a row in status s may be moved to status to
func (s ModerationStatus) CanTransition(to ModerationStatus) bool {
	if !s.IsValid() || !to.IsValid() {
		return false
	}
	if s == to {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// AffectsAggregate reports whether moving from s to to can change the approved set
func (s ModerationStatus) AffectsAggregate(to ModerationStatus) bool {
	return s == StatusApproved || to == StatusApproved
}

// ParseModerationStatus parses a status case-insensitively
func ParseModerationStatus(raw string) (ModerationStatus, error) {
	s := ModerationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
	}
	return s, nil
}
