// Package policy holds the request-time eligibility checks. Both are
// pure predicates over externally fetched fields; nothing here touches
// HTTP or retains state between calls.
package policy

import "strings"

// NotStartedStatus is the sentinel a ticket must still carry in every
// status field for cancellation to be allowed.
const NotStartedStatus = "시작 전"

// Period is a date-bounded campaign window. Start and End are ISO
// dates (YYYY-MM-DD) as stored in the external record.
type Period struct {
	Start string
	End   string
}

// Active reports whether today falls inside the window, inclusive on
// both ends. A window missing either bound is never active.
func (p Period) Active(today string) bool {
	if p.Start == "" || p.End == "" || today == "" {
		return false
	}
	// ISO dates compare correctly as strings.
	return p.Start <= today && today <= p.End
}

// TicketState is the subset of ticket fields the cancel rule reads.
type TicketState struct {
	Archived       bool
	Assignee       string
	Status         string
	ProgressStatus string
}

// Cancelable reports whether a ticket may still be withdrawn by the
// requester: not archived, nobody assigned, and every status field
// that is present still at the not-started sentinel.
func Cancelable(s TicketState) bool {
	if s.Archived {
		return false
	}
	if strings.TrimSpace(s.Assignee) != "" {
		return false
	}
	if s.Status != "" && s.Status != NotStartedStatus {
		return false
	}
	if s.ProgressStatus != "" && s.ProgressStatus != NotStartedStatus {
		return false
	}
	return true
}
