package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"receiptflow/internal/core/id"
	"receiptflow/internal/domain"
	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/infrastructure/storage/postgres"
)

const (
	goodsReceiptsTable     = "doc_goods_receipts"
	goodsReceiptLinesTable = "doc_goods_receipt_lines"
)

var lineColumns = []string{"line_id", "line_no", "product_id", "quantity", "unit_price", "amount"}

// GoodsReceiptRepo implements goods_receipt.Repository.
type GoodsReceiptRepo struct {
	*BaseDocumentRepo[*goods_receipt.GoodsReceipt]
}

func NewGoodsReceiptRepo(txManager *postgres.TxManager) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			goodsReceiptsTable,
			"goods_receipt",
			postgres.ExtractDBColumns[goods_receipt.GoodsReceipt](),
			func() *goods_receipt.GoodsReceipt { return &goods_receipt.GoodsReceipt{} },
		),
	}
}

func (r *GoodsReceiptRepo) GetByID(ctx context.Context, docID id.ID) (*goods_receipt.GoodsReceipt, error) {
	doc, err := r.BaseDocumentRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	return r.withLines(ctx, doc)
}

func (r *GoodsReceiptRepo) GetForUpdate(ctx context.Context, docID id.ID) (*goods_receipt.GoodsReceipt, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}
	return r.withLines(ctx, doc)
}

func (r *GoodsReceiptRepo) withLines(ctx context.Context, doc *goods_receipt.GoodsReceipt) (*goods_receipt.GoodsReceipt, error) {
	lines, err := r.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

// Update stores the header and bumps doc.Version.
func (r *GoodsReceiptRepo) Update(ctx context.Context, doc *goods_receipt.GoodsReceipt) error {
	version, err := r.BaseDocumentRepo.Update(ctx, doc)
	if err != nil {
		return err
	}
	doc.SetVersion(version)
	return nil
}

// GetLines retrieves lines ordered by line number.
func (r *GoodsReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]goods_receipt.Line, error) {
	sql, args, err := postgres.Builder().
		Select(lineColumns...).
		From(goodsReceiptLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := []goods_receipt.Line{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces all lines of a receipt (delete + COPY).
func (r *GoodsReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []goods_receipt.Line) error {
	deleteSQL := "DELETE FROM " + goodsReceiptLinesTable + " WHERE document_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []any{l.LineID, docID, l.LineNo, l.ProductID, l.Quantity, l.UnitPrice, l.Amount})
	}
	columns := []string{"line_id", "document_id", "line_no", "product_id", "quantity", "unit_price", "amount"}
	if _, err := r.txManager.CopyRows(ctx, goodsReceiptLinesTable, columns, rows); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// List retrieves receipt headers with filtering.
func (r *GoodsReceiptRepo) List(ctx context.Context, filter goods_receipt.ListFilter) (domain.ListResult[*goods_receipt.GoodsReceipt], error) {
	filter.Normalize()
	result := domain.ListResult[*goods_receipt.GoodsReceipt]{
		Items:  []*goods_receipt.GoodsReceipt{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.listQuery(filter)

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id").Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}
	return result, nil
}

func (r *GoodsReceiptRepo) listQuery(filter goods_receipt.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.CreatedBy != "" {
		q = q.Where(squirrel.Eq{"created_by": filter.CreatedBy})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}
	return q
}

var _ goods_receipt.Repository = (*GoodsReceiptRepo)(nil)
