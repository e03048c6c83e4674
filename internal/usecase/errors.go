package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// エラーコード。callerには構造化したコードだけ見せ、
// storage層の生のエラーは出さない。
const (
	CodeValidation         = "VALIDATION"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodeUserExists         = "USER_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmptyCart          = "EMPTY_CART"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeAlreadyPaid        = "ALREADY_PAID"
	CodeExternalAPI        = "EXTERNAL_API_ERROR"
	CodeServerError        = "SERVER_ERROR"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewHTTPError(status int, code string, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// DB起因の失敗はすべてこれに畳む
func errInternal() error {
	return NewHTTPError(http.StatusInternalServerError, CodeServerError, "db error")
}

func errUnauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
}
