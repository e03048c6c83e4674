package handler

import (
	"net/http"

	"github.com/Nathan2412/project-api/internal/middleware"
	"github.com/Nathan2412/project-api/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// usecaseのHTTPErrorをJSONに変換する。それ以外は500に落とす。
func writeError(c echo.Context, err error) error {
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Code, Message: he.Message})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: usecase.CodeServerError})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	raw := c.Get(middleware.CtxUserIDKey)
	userID, ok := raw.(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}
