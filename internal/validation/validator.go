// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package validation wraps go-playground/validator with a shared instance,
// marketplace-specific tags and readable error messages.
//
//	type refreshQuery struct {
//	    JobID string `validate:"required,uuid4"`
//	}
//	if err := validation.ValidateStruct(&q); err != nil {
//	    apiErr := err.ToAPIError()
//	    ...
//	}
//
// Custom tags:
//   - actorid: 1-128 printable characters with no slash or whitespace
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MaxActorIDLength bounds user and item identifiers accepted from clients.
const MaxActorIDLength = 128

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error implements error.
func (e FieldError) Error() string { return e.Message }

// Errors collects the failed rules of one struct.
type Errors []FieldError

// Error joins the individual messages.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError is the error body sent to HTTP clients.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError converts the errors to the VALIDATION_ERROR envelope payload.
func (ve Errors) ToAPIError() *APIError {
	apiErr := &APIError{Code: "VALIDATION_ERROR", Message: ve.Error()}
	switch len(ve) {
	case 0:
		apiErr.Message = "Validation failed"
	case 1:
		apiErr.Details = map[string]any{"field": ve[0].Field, "tag": ve[0].Tag}
	default:
		apiErr.Details = map[string]any{"fields": []FieldError(ve)}
	}
	return apiErr
}

// GetValidator returns the shared validator.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("actorid", func(fl validator.FieldLevel) bool {
			return ValidActorID(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("register actorid validator: %v", err))
		}
	})
	return validate
}

// ValidActorID reports whether id is acceptable as a user or item id.
func ValidActorID(id string) bool {
	if id == "" || len(id) > MaxActorIDLength {
		return false
	}
	for _, r := range id {
		if r == '/' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// ValidateStruct validates s. It returns nil or a non-empty Errors.
func ValidateStruct(s any) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return out
}

var simpleMessages = map[string]string{
	"required":      "%s is required",
	"actorid":       "%s must be 1-128 printable characters without slashes or spaces",
	"uuid4":         "%s must be a UUID",
	"hostname_port": "%s must be host:port",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func translate(fe validator.FieldError) string {
	field := fe.Namespace()
	if tmpl, ok := simpleMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
