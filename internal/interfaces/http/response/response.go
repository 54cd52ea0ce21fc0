package response

import (
	"github.com/gin-gonic/gin"
	domainerrors "payment-links.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	appErr, ok := domainerrors.As(err)
	if !ok {
		// Default to Internal Server Error if not an AppError
		appErr = domainerrors.InternalError(err)
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.JSON(appErr.Status, body)
}

// EnvelopeSuccess writes the {success:true,data} shape used by storefront facing endpoints.
func EnvelopeSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// EnvelopeError writes {success:false,data:{code,message}} with the error's HTTP status.
func EnvelopeError(c *gin.Context, err error) {
	appErr, ok := domainerrors.As(err)
	if !ok {
		appErr = domainerrors.InternalError(err)
	}
	c.JSON(appErr.Status, gin.H{
		"success": false,
		"data": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
