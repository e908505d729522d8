package service

import (
	"context"

	"github.com/noah-isme/church-ops-api/internal/dto"
	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
)

const (
	duplicateSucceeded = "Template duplicated"
	duplicateFailed    = "Could not duplicate template"
)

type templateCopier interface {
	Duplicate(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, error)
}

// TemplateDuplicator backs the duplicate action of the template detail panel.
type TemplateDuplicator struct {
	templates templateCopier
}

// NewTemplateDuplicator constructs the duplicator.
func NewTemplateDuplicator(templates templateCopier) *TemplateDuplicator {
	return &TemplateDuplicator{templates: templates}
}

// Duplicate copies the template and returns the message to show the user.
// Failures keep their code and status but carry a user-facing message.
func (d *TemplateDuplicator) Duplicate(ctx context.Context, principal models.Principal, id string) (*dto.TemplateDetail, string, error) {
	detail, err := d.templates.Duplicate(ctx, principal, id)
	if err != nil {
		appErr := appErrors.FromError(err)
		return nil, duplicateFailed, appErrors.Clone(appErr, duplicateFailed)
	}
	return detail, duplicateSucceeded, nil
}
