package gateway

import (
	"fmt"
	"net/http"

	"github.com/k0jin/acapella-maker/src/server/api_error"
	"github.com/k0jin/acapella-maker/src/server/internal/errors/api"
	"github.com/k0jin/acapella-maker/src/server/internal/extraction/errors"
	"github.com/labstack/echo/v4"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:                     http.StatusInternalServerError,
	extractionerrors.ExtractionNotFoundCode:  http.StatusNotFound,
	extractionerrors.BadExtractionDataCode:   http.StatusBadRequest,
	extractionerrors.InvalidInputURLCode:     http.StatusBadRequest,
	extractionerrors.ExtractionOverwriteCode: http.StatusBadRequest,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
