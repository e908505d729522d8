package dto

// AgendaItemRequest creates or edits an agenda item.
type AgendaItemRequest struct {
	Title             string  `json:"title" validate:"omitempty,max=200"`
	Description       *string `json:"description" validate:"omitempty,max=4000"`
	DurationSeconds   *int    `json:"durationSeconds" validate:"omitempty,min=0,max=86400"`
	IsSongPlaceholder bool    `json:"isSongPlaceholder"`
	MinistryID        *string `json:"ministryId"`
}
