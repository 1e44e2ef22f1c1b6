package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 在庫不足（条件付き減算が0件）
	ErrInsufficientStock = errors.New("insufficient stock")

	// 一意制約違反
	ErrDuplicate = errors.New("duplicate")

	// 参照されているので削除できない
	ErrReferenced = errors.New("referenced")
)
