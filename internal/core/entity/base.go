// Package entity holds the base structs shared by every aggregate root and the
// optimistic concurrency guard built on their version column.
package entity

import (
	"time"

	"hesap/internal/core/id"
)

// BaseEntity contains common fields for all aggregate roots.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// BranchID scopes the row; queries never cross branches
	BranchID id.ID `db:"branch_id" json:"branchId"`

	// DeletionMark indicates soft-deleted entity
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking (incremented by the repository on each write)
	Version int64 `db:"version" json:"version"`

	// expected is the caller-observed version set by ExpectToken; zero means unset.
	expected int64
}

// NewBaseEntity creates a new BaseEntity with generated ID in the given branch.
func NewBaseEntity(branchID id.ID) BaseEntity {
	return BaseEntity{
		ID:       id.New(),
		BranchID: branchID,
		Version:  1,
	}
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// IsLive reports whether the row is not soft-deleted.
func (b *BaseEntity) IsLive() bool {
	return !b.DeletionMark
}

// BaseDocument extends BaseEntity with audit fields.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument(branchID id.ID, userID string) BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(branchID),
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  userID,
		UpdatedBy:  userID,
	}
}

// Touch stamps the modifying user and time.
func (b *BaseDocument) Touch(userID string) {
	b.UpdatedAt = time.Now().UTC()
	b.UpdatedBy = userID
}
