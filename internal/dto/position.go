package dto

import "github.com/noah-isme/church-ops-api/internal/models"

// PositionRequest adds one staffing requirement.
type PositionRequest struct {
	MinistryID     string  `json:"ministryId" validate:"required"`
	RoleID         *string `json:"roleId"`
	QuantityNeeded *int    `json:"quantityNeeded" validate:"omitempty,max=500"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
}

// PositionPair is a (ministry, role) pair submitted in a batch.
type PositionPair struct {
	MinistryID string  `json:"ministryId" validate:"required"`
	RoleID     *string `json:"roleId"`
}

// BatchPositionRequest adds several pairs at once.
type BatchPositionRequest struct {
	Pairs []PositionPair `json:"pairs" validate:"required,min=1,max=100,dive"`
}

// Reasons a batch pair was skipped.
const (
	SkipReasonAlreadyAdded     = "already_added"
	SkipReasonDuplicateInBatch = "duplicate_in_batch"
)

// SkippedPosition reports a pair left out of a batch.
type SkippedPosition struct {
	MinistryID string  `json:"ministryId"`
	RoleID     *string `json:"roleId,omitempty"`
	Reason     string  `json:"reason"`
}

// BatchPositionResult lists the outcome of a batch add.
type BatchPositionResult struct {
	Added   []models.PositionRequirement `json:"added"`
	Skipped []SkippedPosition            `json:"skipped"`
}

// QuantityRequest sets the quantity outright or adjusts it by a delta.
type QuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required_without=Delta"`
	Delta    *int `json:"delta" validate:"required_without=Quantity"`
}
