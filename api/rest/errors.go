package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/lootsim/game/sim"
	"github.com/kasuganosora/lootsim/resource"
)

// respondError maps domain errors to HTTP statuses. Unexpected errors are
// attached to the context for the access log and reported as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sim.ErrUnknownZone):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, resource.ErrMissingReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
