package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// GinErrorHandler renders AppErrors. Debug keeps wrapped error text in 5xx responses.
type GinErrorHandler struct {
	Debug bool
}

var defaultHandler = &GinErrorHandler{}

// SetDebug switches the package-level handler used by HandleError.
func SetDebug(debug bool) {
	defaultHandler = &GinErrorHandler{Debug: debug}
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "server error",
			"code", appErr.Code,
			"domain", appErr.Domain,
			"error", appErr.Unwrap(),
		)
		if h.Debug && appErr.Err != nil && appErr.Details == nil {
			appErr = Wrap(appErr.Err, appErr.Code, appErr.Domain, appErr.Message, appErr.HTTPCode).
				WithDetails(appErr.Err.Error())
		}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

func HandleError(c *gin.Context, err error) {
	defaultHandler.HandleGinError(c, err)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
