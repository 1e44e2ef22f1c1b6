package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "revintel/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
	Err     error // ログ用の元エラー（レスポンスには出さない）
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 500（元エラーは残す）
func dbError(err error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: "db error", Err: err}
}

// NotFoundなら404、それ以外は500
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, msg)
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return dbError(err)
}
