package goods_receipt

import "receiptflow/internal/core/security"

// AllowedActions is the permission matrix: the actions an actor with role may
// trigger on a receipt in status, given whether the actor created it.
// It is pure and total; combinations not listed below yield the empty set.
//
//	Draft              creator: Submit, Edit (Employee also Delete); other Admin/Manager: Edit
//	AwaitingApproval   Admin/Manager: Approve, Reject; creator Employee: Cancel
//	Pending            Admin/Manager: Edit, ResendNotification; Supplier: SupplierConfirm
//	SupplierConfirmed  Admin/Manager: Complete
//	Rejected           creator Employee: Resubmit, Edit, Delete
//	Cancelled          creator Employee: Delete
//	Completed          nobody
func AllowedActions(status Status, role security.Role, isCreator bool) ActionSet {
	approver := role.IsApprover()
	creatorEmployee := isCreator && role == security.RoleEmployee

	switch status {
	case StatusDraft:
		switch {
		case creatorEmployee:
			return NewActionSet(ActionSubmit, ActionEdit, ActionDelete)
		case isCreator && approver:
			return NewActionSet(ActionSubmit, ActionEdit)
		case approver:
			return NewActionSet(ActionEdit)
		}

	case StatusAwaitingApproval:
		switch {
		case approver:
			return NewActionSet(ActionApprove, ActionReject)
		case creatorEmployee:
			return NewActionSet(ActionCancel)
		}

	case StatusPending:
		switch {
		case approver:
			return NewActionSet(ActionEdit, ActionResendNotification)
		case role == security.RoleSupplier:
			return NewActionSet(ActionSupplierConfirm)
		}

	case StatusSupplierConfirmed:
		if approver {
			return NewActionSet(ActionComplete)
		}

	case StatusRejected:
		if creatorEmployee {
			return NewActionSet(ActionResubmit, ActionEdit, ActionDelete)
		}

	case StatusCancelled:
		if creatorEmployee {
			return NewActionSet(ActionDelete)
		}
	}

	return 0
}

// allowedInAnotherStatus reports whether the actor would hold action in some
// status other than current. Used to tell state-driven denials from role-driven ones.
func allowedInAnotherStatus(current Status, role security.Role, isCreator bool, action Action) bool {
	for _, s := range AllStatuses {
		if s != current && AllowedActions(s, role, isCreator).Has(action) {
			return true
		}
	}
	return false
}
