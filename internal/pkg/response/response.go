package response

import "github.com/gin-gonic/gin"

type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, status int, message, details string) {
	c.JSON(status, APIError{Error: message, Details: details})
}
