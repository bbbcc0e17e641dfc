package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzlab/mzwake/engine"
	"github.com/mzlab/mzwake/store"
	"github.com/mzlab/mzwake/utils"
)

// writeDomainError maps engine/store errors onto the response envelope.
// Anything unknown is a backend failure and answers 500.
func writeDomainError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "record not found")
	case errors.Is(err, engine.ErrOrderingViolation):
		utils.Error(ctx, http.StatusConflict, 40910, "complete the earlier steps before the final one")
	case errors.Is(err, engine.ErrFakeCompletion):
		utils.Error(ctx, http.StatusBadRequest, 40011, "sensor rejected the completion")
	case errors.Is(err, engine.ErrInvalidMode):
		utils.Error(ctx, http.StatusBadRequest, 40012, "group mode must be RACE or ALL")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50010, "backend unavailable")
	}
}
