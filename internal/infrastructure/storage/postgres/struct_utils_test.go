package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"hesap/internal/core/entity"
	"hesap/internal/core/id"
)

type testDocument struct {
	entity.BaseDocument
	Number string          `db:"number"`
	Total  decimal.Decimal `db:"total_gross"`
	Lines  []string        `db:"-"`
	note   string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[testDocument]()

	assert.Equal(t, []string{
		"id", "branch_id", "deletion_mark", "version",
		"created_at", "updated_at", "created_by", "updated_by",
		"number", "total_gross",
	}, cols)
}

func TestStructToMap_Embedded(t *testing.T) {
	doc := testDocument{
		BaseDocument: entity.NewBaseDocument(id.New(), "u1"),
		Number:       "SI-2025-00001",
		Total:        decimal.RequireFromString("118.00"),
		note:         "ignored",
	}
	doc.ExpectVersion(7)

	m := StructToMap(&doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, doc.BranchID, m["branch_id"])
	assert.Equal(t, int64(1), m["version"])
	assert.Equal(t, "SI-2025-00001", m["number"])
	assert.Equal(t, "u1", m["created_by"])
	assert.NotContains(t, m, "note")
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 10)
}

func TestStructToMap_NotAStruct(t *testing.T) {
	var doc *testDocument
	assert.Nil(t, StructToMap(doc))
	assert.Nil(t, StructToMap(42))
}
