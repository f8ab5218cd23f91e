package goods_receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus_Table(t *testing.T) {
	tests := []struct {
		from   Status
		action Action
		to     Status
	}{
		{StatusDraft, ActionSubmit, StatusAwaitingApproval},
		{StatusAwaitingApproval, ActionApprove, StatusPending},
		{StatusAwaitingApproval, ActionReject, StatusRejected},
		{StatusAwaitingApproval, ActionCancel, StatusCancelled},
		{StatusPending, ActionSupplierConfirm, StatusSupplierConfirmed},
		{StatusPending, ActionEdit, StatusPending},
		{StatusPending, ActionResendNotification, StatusPending},
		{StatusSupplierConfirmed, ActionComplete, StatusCompleted},
		{StatusRejected, ActionResubmit, StatusAwaitingApproval},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			to, ok := NextStatus(tt.from, tt.action)
			require.True(t, ok)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestNextStatus_CompletedIsTerminal(t *testing.T) {
	for _, a := range AllActions {
		_, ok := NextStatus(StatusCompleted, a)
		assert.False(t, ok, "action %s must not leave Completed", a)
	}
}

func TestNextStatus_Delete(t *testing.T) {
	for _, s := range AllStatuses {
		to, ok := NextStatus(s, ActionDelete)
		assert.Empty(t, to)
		assert.Equal(t, s == StatusDraft || s == StatusRejected || s == StatusCancelled, ok, s)
	}
}

func TestActionSet(t *testing.T) {
	set := NewActionSet(ActionEdit, ActionSubmit, Action("bogus"))

	assert.True(t, set.Has(ActionSubmit))
	assert.True(t, set.Has(ActionEdit))
	assert.False(t, set.Has(ActionDelete))
	assert.False(t, set.Has(Action("bogus")))
	assert.Equal(t, []Action{ActionSubmit, ActionEdit}, set.Slice())
	assert.Equal(t, "{Submit,Edit}", set.String())
	assert.True(t, ActionSet(0).IsEmpty())
}

func TestParse(t *testing.T) {
	s, err := ParseStatus("awaitingapproval")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingApproval, s)

	_, err = ParseStatus("Archived")
	assert.Error(t, err)

	a, err := ParseAction("resendNotification")
	require.NoError(t, err)
	assert.Equal(t, ActionResendNotification, a)

	_, err = ParseAction("Approve!")
	assert.Error(t, err)
}
