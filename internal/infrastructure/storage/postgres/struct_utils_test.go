package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/internal/domain/documents/goods_receipt"
)

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[supplier.Supplier]()
	assert.Equal(t, []string{"id", "version", "code", "name", "email"}, cols)
}

func TestExtractDBColumns_SkipsLines(t *testing.T) {
	cols := ExtractDBColumns[goods_receipt.GoodsReceipt]()

	assert.Contains(t, cols, "created_by")
	assert.Contains(t, cols, "total_amount")
	assert.NotContains(t, cols, "lines")
	assert.NotContains(t, cols, "-")
}

func TestStructToMap(t *testing.T) {
	s := supplier.NewSupplier("S-1", "Acme", "orders@acme.test")

	m := StructToMap(s)

	assert.Equal(t, s.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "S-1", m["code"])
	assert.Equal(t, "orders@acme.test", m["email"])
	assert.Nil(t, StructToMap(42))
}
