// Package security defines who may act on documents: roles and the resolved actor.
package security

import (
	"context"

	appctx "receiptflow/internal/core/context"
)

// ActorFromContext builds the Actor of the authenticated request.
// ok is false when no user is attached or the role is not assignable.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	u := appctx.GetUser(ctx)
	if u == nil || u.UserID == "" {
		return Actor{}, false
	}
	role, err := ParseRole(u.Role)
	if err != nil {
		return Actor{}, false
	}
	return Actor{UserID: u.UserID, Role: role}, true
}
