package goods_receipt

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a goods receipt.
type Status string

const (
	StatusDraft             Status = "Draft"
	StatusAwaitingApproval  Status = "AwaitingApproval"
	StatusPending           Status = "Pending"
	StatusSupplierConfirmed Status = "SupplierConfirmed"
	StatusCompleted         Status = "Completed"
	StatusRejected          Status = "Rejected"
	StatusCancelled         Status = "Cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusDraft,
	StatusAwaitingApproval,
	StatusPending,
	StatusSupplierConfirmed,
	StatusCompleted,
	StatusRejected,
	StatusCancelled,
}

func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// LinesEditable reports whether line items may change in this status.
func (s Status) LinesEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

// IsTerminal reports whether no further transition leaves this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// ParseStatus accepts the exact status name, case-insensitively.
func ParseStatus(v string) (Status, error) {
	for _, s := range AllStatuses {
		if strings.EqualFold(string(s), v) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", v)
}

// Action is something an actor asks the engine to do with a receipt.
type Action string

const (
	ActionSubmit             Action = "Submit"
	ActionApprove            Action = "Approve"
	ActionReject             Action = "Reject"
	ActionCancel             Action = "Cancel"
	ActionSupplierConfirm    Action = "SupplierConfirm"
	ActionComplete           Action = "Complete"
	ActionResubmit           Action = "Resubmit"
	ActionEdit               Action = "Edit"
	ActionDelete             Action = "Delete"
	ActionResendNotification Action = "ResendNotification"
)

// AllActions lists every action; its order is the order of ActionSet.Slice.
var AllActions = []Action{
	ActionSubmit,
	ActionApprove,
	ActionReject,
	ActionCancel,
	ActionSupplierConfirm,
	ActionComplete,
	ActionResubmit,
	ActionEdit,
	ActionDelete,
	ActionResendNotification,
}

func (a Action) bit() ActionSet {
	for i, v := range AllActions {
		if v == a {
			return 1 << uint(i)
		}
	}
	return 0
}

func (a Action) IsValid() bool { return a.bit() != 0 }

// ParseAction accepts the action name case-insensitively.
func ParseAction(v string) (Action, error) {
	for _, a := range AllActions {
		if strings.EqualFold(string(a), v) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", v)
}

// ActionSet is an immutable set of actions.
type ActionSet uint16

// NewActionSet builds a set from actions; unknown actions are ignored.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s |= a.bit()
	}
	return s
}

func (s ActionSet) Has(a Action) bool {
	b := a.bit()
	return b != 0 && s&b != 0
}

func (s ActionSet) IsEmpty() bool { return s == 0 }

// Slice returns the actions in AllActions order.
func (s ActionSet) Slice() []Action {
	out := make([]Action, 0, len(AllActions))
	for _, a := range AllActions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s ActionSet) String() string {
	parts := make([]string, 0, len(AllActions))
	for _, a := range s.Slice() {
		parts = append(parts, string(a))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

type transitionKey struct {
	from   Status
	action Action
}

// transitions maps (status, action) to the resulting status.
// Edit and ResendNotification keep the status; Delete removes the document.
var transitions = map[transitionKey]Status{
	{StatusDraft, ActionSubmit}:               StatusAwaitingApproval,
	{StatusDraft, ActionEdit}:                 StatusDraft,
	{StatusAwaitingApproval, ActionApprove}:   StatusPending,
	{StatusAwaitingApproval, ActionReject}:    StatusRejected,
	{StatusAwaitingApproval, ActionCancel}:    StatusCancelled,
	{StatusPending, ActionSupplierConfirm}:    StatusSupplierConfirmed,
	{StatusPending, ActionEdit}:               StatusPending,
	{StatusPending, ActionResendNotification}: StatusPending,
	{StatusSupplierConfirmed, ActionComplete}: StatusCompleted,
	{StatusRejected, ActionResubmit}:          StatusAwaitingApproval,
	{StatusRejected, ActionEdit}:              StatusRejected,
}

// deletable lists statuses a Delete action may remove a document from.
var deletable = map[Status]bool{
	StatusDraft:     true,
	StatusRejected:  true,
	StatusCancelled: true,
}

// NextStatus returns the status reached by applying action in from.
// ok is false when the pair is not a transition of the lifecycle.
// Delete is reported with ok and an empty status.
func NextStatus(from Status, action Action) (Status, bool) {
	if action == ActionDelete {
		return "", deletable[from]
	}
	to, ok := transitions[transitionKey{from, action}]
	return to, ok
}
