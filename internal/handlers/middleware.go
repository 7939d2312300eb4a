package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openexam/exam-engine/internal/identity"
)

// AuthMiddleware resolves the bearer token into an identity and stores it
// in the request context. The engine treats the resolved ID as opaque.
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		id, err := provider.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set("user_id", id.ID)
		c.Set("user_name", id.Name)
		c.Set("instructor", id.Instructor)
		c.Next()
	}
}

// RequireInstructor guards instructor-only routes.
func RequireInstructor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if instructor, exists := c.Get("instructor"); !exists || instructor != true {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Instructor role required",
			})
			return
		}
		c.Next()
	}
}
