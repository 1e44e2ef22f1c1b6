package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// 金額。JSONでは小数2桁の文字列にする（"20.00"）。
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// 文字列から作る（テスト・seed用）
func MustMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

// "12.50" と 12.5 の両方を受け付ける
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("money must not be null")
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("invalid money %q: %w", string(b), err)
	}
	m.Decimal = d
	return nil
}
