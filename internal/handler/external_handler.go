package handler

import (
	"net/http"

	"github.com/Nathan2412/project-api/internal/infra/rates"
	"github.com/Nathan2412/project-api/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/external のHTTP。外部の為替レートAPIをproxyする。
type ExternalHandler struct {
	rates *rates.Client
}

// DI
func NewExternalHandler(ratesClient *rates.Client) *ExternalHandler {
	return &ExternalHandler{rates: ratesClient}
}

func (h *ExternalHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/external")

	g.GET("/rates", h.getRates)
}

func (h *ExternalHandler) getRates(c echo.Context) error {
	base := c.QueryParam("base")

	out, err := h.rates.Latest(c.Request().Context(), base)
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   usecase.CodeExternalAPI,
			Message: "failed to fetch currency rates",
		})
	}

	return c.JSON(http.StatusOK, out)
}
