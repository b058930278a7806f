package domain

import "fmt"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus rejects any string outside the closed set.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// Active statuses block the booking's interval for new requests.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// Role is who is asking for a transition relative to the booking.
type Role int

const (
	RoleOther Role = iota
	RoleRequester
	RoleOwner
	RoleSystem
)

// transitions is the whole booking state machine. Terminal states have no entry.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionConfirm: StatusConfirmed,
		ActionReject:  StatusRejected,
		ActionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		ActionCancel:   StatusCancelled,
		ActionComplete: StatusCompleted,
	},
}

// Next returns the status reached by applying a to s.
func (s Status) Next(a Action) (Status, bool) {
	to, ok := transitions[s][a]
	return to, ok
}

// Allowed reports whether the role may perform the action at all.
func (a Action) Allowed(r Role) bool {
	switch a {
	case ActionConfirm, ActionReject:
		return r == RoleOwner
	case ActionCancel:
		return r == RoleOwner || r == RoleRequester
	case ActionComplete:
		return r == RoleSystem
	default:
		return false
	}
}
