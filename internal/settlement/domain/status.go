package domain

type Status string

const (
	StatusDraft      Status = "draft"
	StatusCalculated Status = "calculated"
	StatusApproved   Status = "approved"
	StatusPaid       Status = "paid"
	StatusCancelled  Status = "cancelled"
)

// Action names a lifecycle operation.
type Action string

const (
	ActionRecompute Action = "recompute"
	ActionApprove   Action = "approve"
	ActionMarkPaid  Action = "mark_paid"
	ActionCancel    Action = "cancel"
	ActionDelete    Action = "delete"
)

type transition struct {
	from []Status
	to   Status
}

var transitions = map[Action]transition{
	ActionRecompute: {from: []Status{StatusDraft, StatusCalculated}, to: StatusCalculated},
	ActionApprove:   {from: []Status{StatusCalculated}, to: StatusApproved},
	ActionMarkPaid:  {from: []Status{StatusApproved}, to: StatusPaid},
	ActionCancel:    {from: []Status{StatusDraft, StatusCalculated, StatusApproved}, to: StatusCancelled},
	// delete has no target state; the row goes away
	ActionDelete: {from: []Status{StatusDraft, StatusCalculated, StatusCancelled}},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusCalculated, StatusApproved, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further action can change the settlement.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Next returns the status reached by applying action to from, or a *TransitionError.
func Next(from Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return from, &TransitionError{Action: action, From: from}
	}
	for _, allowed := range t.from {
		if allowed == from {
			return t.to, nil
		}
	}
	return from, &TransitionError{Action: action, From: from, To: t.to}
}
