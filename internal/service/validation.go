package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/church-ops-api/internal/models"
)

// registerTemplateValidations installs the tags used by template payloads.
func registerTemplateValidations(v *validator.Validate) {
	_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return models.EventType(strings.ToLower(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		return models.Visibility(strings.ToLower(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, _, err := models.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("duration_preset", func(fl validator.FieldLevel) bool {
		return models.IsDurationPreset(int(fl.Field().Int()))
	})
}
