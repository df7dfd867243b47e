package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quillpost-api/services"
	"quillpost-api/utils"
)

const maxPageSize = 50

// respondError maps service errors onto HTTP statuses. Anything unrecognised
// is attached to the context for ErrorHandler to log and answered with 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		utils.SendError(c, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, services.ErrNotFound):
		utils.SendErrorMessage(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, services.ErrNotPublished):
		utils.SendErrorMessage(c, http.StatusNotFound, "Post not published", err.Error())
	case errors.Is(err, services.ErrNotAuthorized):
		utils.SendErrorMessage(c, http.StatusForbidden, "Not authorized", err.Error())
	case errors.Is(err, services.ErrValidation):
		utils.SendValidationError(c, err.Error())
	default:
		_ = c.Error(err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// queryLimit reads ?limit=, falling back to def and capping at maxPageSize.
func queryLimit(c *gin.Context, def int) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return utils.ClampLimit(limit, def, maxPageSize)
}
