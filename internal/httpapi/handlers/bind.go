package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds and validates a request body, writing the fixed error
// envelope on failure. Returns false if the caller should stop handling
// the request.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, bindErrorMessage(err))
		return false
	}
	return true
}

func bindErrorMessage(err error) string {
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		fields := make([]string, 0, len(verr))
		for _, fe := range verr {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return "missing or invalid fields: " + strings.Join(fields, ", ")
	}
	return fmt.Sprintf("invalid request body: %v", err)
}
