package util

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/driftboard/backend/internal/store"
)

// HandleStoreError handles document store errors and sends appropriate HTTP
// responses. Returns true if the error was handled and a response was sent.
func HandleStoreError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, store.ErrNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}

	RespondInternalError(c, "Failed to fetch "+resourceName)
	return true
}
