package goods_receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"receiptflow/internal/core/security"
)

var allRoles = []security.Role{
	security.RoleAdmin,
	security.RoleManager,
	security.RoleEmployee,
	security.RoleSupplier,
}

func TestAllowedActions_Matrix(t *testing.T) {
	set := NewActionSet
	tests := []struct {
		name      string
		status    Status
		role      security.Role
		isCreator bool
		want      ActionSet
	}{
		{"draft creator employee", StatusDraft, security.RoleEmployee, true, set(ActionSubmit, ActionEdit, ActionDelete)},
		{"draft creator manager", StatusDraft, security.RoleManager, true, set(ActionSubmit, ActionEdit)},
		{"draft creator admin", StatusDraft, security.RoleAdmin, true, set(ActionSubmit, ActionEdit)},
		{"draft other manager", StatusDraft, security.RoleManager, false, set(ActionEdit)},
		{"draft other employee", StatusDraft, security.RoleEmployee, false, 0},
		{"awaiting admin", StatusAwaitingApproval, security.RoleAdmin, false, set(ActionApprove, ActionReject)},
		{"awaiting creator manager", StatusAwaitingApproval, security.RoleManager, true, set(ActionApprove, ActionReject)},
		{"awaiting creator employee", StatusAwaitingApproval, security.RoleEmployee, true, set(ActionCancel)},
		{"pending manager", StatusPending, security.RoleManager, false, set(ActionEdit, ActionResendNotification)},
		{"pending supplier", StatusPending, security.RoleSupplier, false, set(ActionSupplierConfirm)},
		{"pending creator employee", StatusPending, security.RoleEmployee, true, 0},
		{"confirmed admin", StatusSupplierConfirmed, security.RoleAdmin, false, set(ActionComplete)},
		{"confirmed creator employee", StatusSupplierConfirmed, security.RoleEmployee, true, 0},
		{"rejected creator employee", StatusRejected, security.RoleEmployee, true, set(ActionResubmit, ActionEdit, ActionDelete)},
		{"rejected creator manager", StatusRejected, security.RoleManager, true, 0},
		{"cancelled creator employee", StatusCancelled, security.RoleEmployee, true, set(ActionDelete)},
		{"cancelled admin", StatusCancelled, security.RoleAdmin, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AllowedActions(tt.status, tt.role, tt.isCreator)
			assert.Equal(t, tt.want, got, "got %s want %s", got, tt.want)
		})
	}
}

func TestAllowedActions_Total(t *testing.T) {
	for _, s := range AllStatuses {
		for _, r := range allRoles {
			for _, c := range []bool{true, false} {
				got := AllowedActions(s, r, c)
				for _, a := range got.Slice() {
					assert.True(t, a.IsValid())
				}
			}
		}
	}
}

func TestAllowedActions_CompletedIsEmpty(t *testing.T) {
	for _, r := range allRoles {
		for _, c := range []bool{true, false} {
			assert.True(t, AllowedActions(StatusCompleted, r, c).IsEmpty(), "role %s creator %v", r, c)
		}
	}
}

func TestAllowedActions_NonCreatorEmployeeOutsideDraft(t *testing.T) {
	for _, s := range AllStatuses {
		if s == StatusDraft {
			continue
		}
		assert.True(t, AllowedActions(s, security.RoleEmployee, false).IsEmpty(), s)
	}
}

func TestAllowedActions_OnlyLifecycleActions(t *testing.T) {
	for _, s := range AllStatuses {
		for _, r := range allRoles {
			for _, c := range []bool{true, false} {
				for _, a := range AllowedActions(s, r, c).Slice() {
					_, ok := NextStatus(s, a)
					assert.True(t, ok, "%s allowed in %s but not a transition", a, s)
				}
			}
		}
	}
}
