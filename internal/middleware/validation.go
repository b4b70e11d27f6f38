package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// BindAndValidate binds the JSON request body into v and checks its validate
// tags. On failure it writes the 400 response and reports false; handlers
// just return.
func BindAndValidate(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid JSON format",
			"details": err.Error(),
		})
		return false
	}

	if err := validate.Struct(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return false
	}

	return true
}

// ValidateStruct checks validate tags on an already-bound value.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
