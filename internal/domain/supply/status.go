package supply

import "strings"

// Status represents the lifecycle state of a purchase order.
// The set is closed: anything the backend sends that does not normalize to
// one of the known values becomes StatusUnknown, which is surfaced to
// callers instead of being silently dropped.
type Status string

const (
	StatusApproved            Status = "APPROVED"
	StatusScheduled           Status = "SCHEDULED"
	StatusInTransit           Status = "IN_TRANSIT"
	StatusReceived            Status = "RECEIVED"
	StatusPartiallyReceived   Status = "PARTIALLY_RECEIVED"
	StatusDiscrepancyReported Status = "DISCREPANCY_REPORTED"
	StatusUnknown             Status = "UNKNOWN"
)

var statusNames = map[string]Status{
	"approved":             StatusApproved,
	"scheduled":            StatusScheduled,
	"in transit":           StatusInTransit,
	"received":             StatusReceived,
	"partially received":   StatusPartiallyReceived,
	"discrepancy reported": StatusDiscrepancyReported,
}

// ParseStatus normalizes a raw status string into the closed enum.
// Matching is case-insensitive and treats underscores, hyphens and runs of
// whitespace as equivalent. The second return value is false when the raw
// value did not match any known status; the result is then StatusUnknown.
func ParseStatus(raw string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")

	if s, ok := statusNames[normalized]; ok {
		return s, true
	}
	return StatusUnknown, false
}

// IsValid checks if the status is a recognized, non-Unknown value
func (s Status) IsValid() bool {
	switch s {
	case StatusApproved, StatusScheduled, StatusInTransit,
		StatusReceived, StatusPartiallyReceived, StatusDiscrepancyReported:
		return true
	}
	return false
}

// CanTransitionTo checks if transition to target status is allowed.
// The machine is monotonic; no transition moves an order backwards.
// Scheduled permits a self-transition so a delivery can be rescheduled.
func (s Status) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusApproved:            {StatusScheduled},
		StatusScheduled:           {StatusScheduled, StatusInTransit, StatusReceived, StatusPartiallyReceived},
		StatusInTransit:           {StatusReceived, StatusPartiallyReceived},
		StatusPartiallyReceived:   {StatusDiscrepancyReported},
		StatusReceived:            {},
		StatusDiscrepancyReported: {},
		StatusUnknown:             {},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// CanSchedule returns true when a delivery may be scheduled or rescheduled
func (s Status) CanSchedule() bool {
	return s == StatusApproved || s == StatusScheduled
}

// CanInspect returns true when a delivery inspection may be recorded
func (s Status) CanInspect() bool {
	return s == StatusScheduled || s == StatusInTransit
}

// IsTerminal returns true when no further transitions exist
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusDiscrepancyReported
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}
