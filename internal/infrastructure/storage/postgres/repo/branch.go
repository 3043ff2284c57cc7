package repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/infrastructure/storage/postgres"
)

const branchesTable = "branches"

// Branch is a registered tenant of the ledger. Every scoped row references one.
type Branch struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

var branchColumns = postgres.ExtractDBColumns[Branch]()

// BranchRepo registers branches.
type BranchRepo struct {
	base
}

// NewBranchRepo creates a new branch repository.
func NewBranchRepo(txm *postgres.TxManager) *BranchRepo {
	return &BranchRepo{base: newBase(txm)}
}

// Create registers a branch.
func (r *BranchRepo) Create(ctx context.Context, b *Branch) error {
	return r.insert(ctx, branchesTable, "branch", branchColumns, b)
}

// List returns every branch ordered by code.
func (r *BranchRepo) List(ctx context.Context) ([]*Branch, error) {
	var out []*Branch
	if err := r.list(ctx, &out, psql.Select(branchColumns...).From(branchesTable).OrderBy("code")); err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether a branch is registered.
func (r *BranchRepo) Exists(ctx context.Context, branchID id.ID) (bool, error) {
	sub := psql.Select("1").From(branchesTable).Where(squirrel.Eq{"id": branchID})
	sql, args, err := psql.Select().Column(squirrel.Expr("EXISTS (?)", sub)).ToSql()
	if err != nil {
		return false, err
	}
	var ok bool
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&ok)
	return ok, err
}
