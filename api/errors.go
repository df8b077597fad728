package api

import (
	"errors"
	"net/http"
	"strconv"

	"foodgram/recipes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// abortWithError writes the error body for err and stops the handler chain.
// Errors that are not ServiceErrors are reported as Internal.
func abortWithError(c *gin.Context, err error) {
	var serviceErr *recipes.ServiceError
	if errors.As(err, &serviceErr) {
		c.AbortWithStatusJSON(serviceErr.Status, errorResponse{
			Error:  serviceErr.Kind,
			Detail: serviceErr.Message,
		})

		return
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetString(requestIDKey)).
		Msg("unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
		Error:  "Internal",
		Detail: "Internal server error",
	})
}

func abortInvalid(c *gin.Context, detail string) {
	abortWithError(c, recipes.NewError(recipes.ErrInvalidField, detail))
}

// idParam parses the ":id" path segment. Malformed ids cannot match any row
// and are answered with notFound.
func idParam(c *gin.Context, notFound error) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		abortWithError(c, recipes.NewError(notFound, ""))

		return 0, false
	}

	return uint(id), true
}

// bindJSON decodes the request body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortInvalid(c, "malformed request body: "+err.Error())

		return false
	}

	return true
}
