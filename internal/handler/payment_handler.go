package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Nathan2412/project-api/internal/config"
	"github.com/Nathan2412/project-api/internal/middleware"
	"github.com/Nathan2412/project-api/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/payment のHTTP。
// webhookの署名検証はこの境界で行い、usecaseには検証済みの通知だけ渡す。
type PaymentHandler struct {
	uc            *usecase.PaymentUsecase
	webhookSecret string
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{uc: uc, webhookSecret: webhookSecret}
}

type createIntentRequest struct {
	OrderID int64 `json:"order_id"`
}

type confirmRequest struct {
	OrderID int64 `json:"order_id"`
}

// プロバイダから届く通知のボディ
type webhookEvent struct {
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/api/payment")

	g.POST("/create-intent", h.createIntent, middleware.AuthJWT(cfg))
	g.POST("/confirm", h.confirm, middleware.AuthJWT(cfg))
	//webhookは認証なし。署名で守る。
	g.POST("/webhook", h.webhook)
}

func (h *PaymentHandler) createIntent(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: usecase.CodeUnauthorized})
	}

	var req createIntentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: usecase.CodeValidation, Message: "invalid body"})
	}

	out, err := h.uc.CreateIntent(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) confirm(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: usecase.CodeUnauthorized})
	}

	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: usecase.CodeValidation, Message: "invalid body"})
	}

	out, err := h.uc.ConfirmManual(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: usecase.CodeValidation, Message: "invalid body"})
	}

	//HMAC-SHA256で署名検証
	sig := c.Request().Header.Get("X-Payment-Signature")
	if !h.verifySignature(body, sig) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: usecase.CodeValidation, Message: "invalid signature"})
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: usecase.CodeValidation, Message: "invalid body"})
	}

	//成功イベント以外は受領だけ返す
	if ev.Type != "payment.succeeded" {
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}

	if _, err := h.uc.MarkOrderPaid(c.Request().Context(), ev.OrderID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *PaymentHandler) verifySignature(body []byte, sig string) bool {
	if h.webhookSecret == "" || sig == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}
