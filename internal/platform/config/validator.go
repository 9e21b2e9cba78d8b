// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taibuivan/stockroom/internal/platform/apperr"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
)

// Validate checks struct tags and cross-field rules.
// Every failure is reported at once as a single CONFIGURATION_ERROR.
func (cfg *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(cfg); err != nil {
		return formatValidationErrors(err)
	}

	if !rbac.IsValidRole(cfg.DefaultRole) {
		return apperr.Configuration(fmt.Sprintf("DEFAULT_ROLE: unknown role %q", cfg.DefaultRole))
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" && cfg.IsProduction() {
			return apperr.Configuration("ALLOWED_ORIGINS: wildcard origin is not allowed in production")
		}
	}

	for _, path := range cfg.PublicPaths {
		if !strings.HasPrefix(path, "/") {
			return apperr.Configuration(fmt.Sprintf("PUBLIC_PATHS: %q must start with /", path))
		}
	}

	return nil
}

// formatValidationErrors converts validator.ValidationErrors to one readable message.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperr.Configuration(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatSingleValidationError(fieldError))
	}
	return apperr.Configuration(strings.Join(messages, "; "))
}

func formatSingleValidationError(fieldError validator.FieldError) string {
	field := fieldError.Field()

	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", field)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s], got %q", field, fieldError.Param(), fieldError.Value())
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, fieldError.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s", field, fieldError.Param())
	case "numeric":
		return fmt.Sprintf("%s: must be numeric", field)
	default:
		return fmt.Sprintf("%s: failed %s validation", field, fieldError.Tag())
	}
}
