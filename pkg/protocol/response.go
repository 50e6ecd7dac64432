package protocol

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
)

// APIResponse is the envelope every REST endpoint answers with.
type APIResponse struct {
	Success   bool   `json:"success"`
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

func newAPIResponse(success bool, errorCode int, message string, data any) *APIResponse {
	if data == nil {
		data = map[string]any{}
	}
	return &APIResponse{
		Success:   success,
		ErrorCode: errorCode,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	}
}

func APIResult(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, newAPIResponse(true, 0, message, data))
}

func APIError(c echo.Context, errorCode int, message string) error {
	status := errorCode
	if http.StatusText(status) == "" {
		status = http.StatusBadRequest
	}
	return c.JSON(status, newAPIResponse(false, errorCode, message, nil))
}
