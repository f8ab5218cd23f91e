package goods_receipt

import (
	"context"
	"fmt"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/security"
)

// SupplierDirectory answers whether a supplier is known.
type SupplierDirectory interface {
	Exists(ctx context.Context, supplierID id.ID) (bool, error)
}

// ProductDirectory reports which of the given products are unknown.
type ProductDirectory interface {
	Missing(ctx context.Context, productIDs []id.ID) ([]id.ID, error)
}

// Guard decides whether an actor may apply an action to a receipt as it is now.
// It never changes the receipt.
type Guard struct {
	suppliers SupplierDirectory
	products  ProductDirectory
}

func NewGuard(suppliers SupplierDirectory, products ProductDirectory) *Guard {
	return &Guard{suppliers: suppliers, products: products}
}

// Authorize returns nil when the action may proceed, otherwise an AppError
// with code FORBIDDEN (the actor may never do this here) or INVALID_STATE
// (the document is not in a state that allows it). Directory failures are
// returned as DEPENDENCY_FAILURE.
func (g *Guard) Authorize(ctx context.Context, doc *GoodsReceipt, actor security.Actor, action Action) error {
	isCreator := doc.IsCreatedBy(actor.UserID)

	if !AllowedActions(doc.Status, actor.Role, isCreator).Has(action) {
		if allowedInAnotherStatus(doc.Status, actor.Role, isCreator, action) {
			return apperror.NewInvalidState(fmt.Sprintf("%s is not possible while the receipt is %s", action, doc.Status)).
				WithDetail("status", string(doc.Status)).
				WithDetail("action", string(action))
		}
		return apperror.NewForbidden(fmt.Sprintf("%s may not %s this receipt", actor.Role, action)).
			WithDetail("status", string(doc.Status)).
			WithDetail("action", string(action))
	}

	switch action {
	case ActionSubmit, ActionResubmit:
		return g.checkSubmittable(ctx, doc)
	case ActionComplete:
		return g.checkProductsKnown(ctx, doc)
	}
	return nil
}

func (g *Guard) checkSubmittable(ctx context.Context, doc *GoodsReceipt) error {
	if len(doc.Lines) == 0 {
		return apperror.NewInvalidState("receipt has no line items").
			WithDetail("status", string(doc.Status))
	}
	if id.IsNil(doc.SupplierID) {
		return apperror.NewInvalidState("receipt has no supplier").
			WithDetail("status", string(doc.Status))
	}

	ok, err := g.suppliers.Exists(ctx, doc.SupplierID)
	if err != nil {
		return dependencyError("supplier directory", err)
	}
	if !ok {
		return apperror.NewInvalidState("supplier is unknown").
			WithDetail("supplier_id", doc.SupplierID.String())
	}
	return g.checkProductsKnown(ctx, doc)
}

func (g *Guard) checkProductsKnown(ctx context.Context, doc *GoodsReceipt) error {
	ids, err := g.unknownProducts(ctx, doc)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return apperror.NewInvalidState("receipt references unknown products").
			WithDetail("product_ids", ids)
	}
	return nil
}

// ValidateLines rejects line items that reference products missing from the
// directory. Create and Edit call it before anything is stored.
func (g *Guard) ValidateLines(ctx context.Context, doc *GoodsReceipt) error {
	ids, err := g.unknownProducts(ctx, doc)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return apperror.NewValidation("line items reference unknown products").
			WithDetail("product_ids", ids)
	}
	return nil
}

func (g *Guard) unknownProducts(ctx context.Context, doc *GoodsReceipt) ([]string, error) {
	if len(doc.Lines) == 0 {
		return nil, nil
	}
	missing, err := g.products.Missing(ctx, doc.ProductIDs())
	if err != nil {
		return nil, dependencyError("product directory", err)
	}
	ids := make([]string, 0, len(missing))
	for _, m := range missing {
		ids = append(ids, m.String())
	}
	return ids, nil
}

func dependencyError(dependency string, err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewDependency(dependency, err)
}
