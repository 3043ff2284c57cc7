package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hesap/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
	pgNumericOutOfRange   = "22003"
)

// uniqueFields names the business field behind each unique index.
var uniqueFields = map[string]string{
	"uq_items_code":               "code",
	"uq_expense_definitions_code": "code",
	"uq_warehouses_code":          "code",
	"uq_contacts_code":            "code",
	"uq_accounts_code":            "code",
	"uq_payments_reference":       "reference",
	"uq_invoices_number":          "number",
	"uq_orders_number":            "number",
	"uq_expense_lists_number":     "number",
	"uq_users_email":              "email",
	"uq_branches_code":            "code",
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// NotFoundOr maps pgx.ErrNoRows to NotFound and passes other errors through.
func NotFoundOr(err error, entity string, id any) error {
	if IsNoRows(err) {
		return apperror.NewNotFound(entity, id)
	}
	return err
}

// TranslateError maps constraint violations raised by a write to AppErrors.
// Errors that are not constraint violations are returned unchanged.
func TranslateError(err error, entity string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		field, ok := uniqueFields[pgErr.ConstraintName]
		if !ok {
			field = strings.TrimPrefix(pgErr.ConstraintName, "uq_")
		}
		return apperror.NewDuplicate(entity, field, pgErr.Detail).WithCause(err)
	case pgCheckViolation:
		if strings.HasPrefix(pgErr.ConstraintName, "chk_stock_quantity") {
			return apperror.NewBusinessRule(apperror.CodeInsufficientStock, "Insufficient stock").WithCause(err)
		}
		return apperror.NewValidation(pgErr.Message).WithDetail("constraint", pgErr.ConstraintName).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "referenced row does not exist").
			WithDetail("constraint", pgErr.ConstraintName).WithCause(err)
	case pgNumericOutOfRange:
		return apperror.NewValidation("value is out of range for " + entity).WithCause(err)
	}
	return err
}
