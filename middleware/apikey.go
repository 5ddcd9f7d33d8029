package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/coderking2705/storefront-api/models"
)

// ValidateAPIKey guards the admin route group.
func ValidateAPIKey(c *gin.Context) {
	apiKey := c.GetHeader("X-API-KEY")
	if apiKey == "" || apiKey != os.Getenv("ADMIN_API_KEY") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
		c.Abort()
		return
	}
	c.Set("role", models.RoleAdmin)
	if c.GetHeader("X-ADMIN-ID") != "" {
		c.Set("user_id", c.GetHeader("X-ADMIN-ID"))
	} else {
		c.Set("user_id", "admin")
	}
	c.Next()
}
