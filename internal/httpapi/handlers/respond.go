package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondError writes the fixed error envelope every endpoint uses:
// {"error": "<message>"}.
func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"error": message})
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message)
}
