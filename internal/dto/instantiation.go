package dto

import appErrors "github.com/noah-isme/church-ops-api/pkg/errors"

// InstantiateRequest lists the calendar dates (YYYY-MM-DD) to create events on.
type InstantiateRequest struct {
	TemplateID string   `json:"templateId"`
	Dates      []string `json:"dates" validate:"required,min=1,dive,required"`
}

// InstantiationStatus is the terminal state of an instantiation run.
type InstantiationStatus string

const (
	InstantiationAllCreated       InstantiationStatus = "all_created"
	InstantiationPartiallyCreated InstantiationStatus = "partially_created"
	InstantiationNoneCreated      InstantiationStatus = "none_created"
)

// Per-date outcome states.
const (
	DateCreated = "created"
	DateFailed  = "failed"
	DateSkipped = "skipped"
)

// DateOutcome reports what happened to one requested date.
type DateOutcome struct {
	Date    string           `json:"date"`
	Status  string           `json:"status"`
	EventID string           `json:"eventId,omitempty"`
	Error   *appErrors.Error `json:"error,omitempty"`
}

// InstantiationResult summarises a run over all requested dates.
type InstantiationResult struct {
	TemplateID      string              `json:"templateId"`
	Status          InstantiationStatus `json:"status"`
	CreatedEventIDs []string            `json:"createdEventIds"`
	Created         int                 `json:"created"`
	Requested       int                 `json:"requested"`
	FailedAt        *string             `json:"failedAt,omitempty"`
	FailedIndex     *int                `json:"failedIndex,omitempty"`
	Error           *appErrors.Error    `json:"error,omitempty"`
	Message         string              `json:"message"`
	Outcomes        []DateOutcome       `json:"outcomes"`
}
