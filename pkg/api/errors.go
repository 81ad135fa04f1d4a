package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

// errorResponse is the uniform error body (spec.md §6: "all endpoints
// return {code, message, details?} on error with HTTP status mapped from
// error taxonomy (§7)").
type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// respondError writes err's classified category, message, and any field
// details at the HTTP status that category maps to.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Wrap(apperr.CategoryInternal, "internal error", err)
	}

	c.JSON(appErr.Category.HTTPStatus(), errorResponse{
		Code:    string(appErr.Category),
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

func errMissingTenantScope() error {
	return apperr.New(apperr.CategoryValidation, "X-Tenant-ID and X-Site-ID headers are required")
}

func errMissingNPCID() error {
	return apperr.New(apperr.CategoryValidation, "npc_id query parameter is required")
}

func errMissingAssignParams() error {
	return apperr.New(apperr.CategoryValidation, "experiment_id and subject_key query parameters are required")
}

func errInvalidSilenceWindow() error {
	return apperr.New(apperr.CategoryValidation, "ends_at must be after starts_at")
}

// badRequest classifies a request-binding failure as a validation error.
func badRequest(err error) error {
	return apperr.Wrap(apperr.CategoryValidation, "invalid request body", err)
}
