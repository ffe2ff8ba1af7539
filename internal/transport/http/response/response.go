package response

import "github.com/gin-gonic/gin"

const (
	CodeOK              = 0
	CodeBadRequest      = 40000
	CodeUnauthorized    = 40100
	CodeSessionNotFound = 40401
	CodeNoCaptions      = 40402
	CodeConflict        = 40900
	CodeEmptyIndex      = 40901
	CodeUnprocessable   = 42200
	CodeInternalServer  = 50000
	CodeUpstream        = 50200
	CodeTimeout         = 50400
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
