package dto

import (
	"time"

	"hesap/internal/core/entity"
)

// IDResponse is returned by operations that only produce an id.
type IDResponse struct {
	ID string `json:"id"`
}

// RowVersionRequest carries the caller-observed version of an aggregate.
type RowVersionRequest struct {
	RowVersion string `json:"rowVersion" form:"rowVersion" binding:"required,rowversion"`
}

// StatusResponse reports a state-machine transition.
type StatusResponse struct {
	Success    bool   `json:"success"`
	ID         string `json:"id"`
	Status     string `json:"status"`
	RowVersion string `json:"rowVersion"`
}

// DocumentMeta is the audit part of every document response.
type DocumentMeta struct {
	ID         string    `json:"id"`
	RowVersion string    `json:"rowVersion"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	UpdatedBy  string    `json:"updatedBy,omitempty"`
}

func documentMeta(b *entity.BaseDocument) DocumentMeta {
	return DocumentMeta{
		ID:         b.ID.String(),
		RowVersion: b.RowVersion(),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		CreatedBy:  b.CreatedBy,
		UpdatedBy:  b.UpdatedBy,
	}
}
