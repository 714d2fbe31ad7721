package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Grams 受监管品类的重量类型（克，保留 2 位小数）
// 限额账本与商品快照统一使用该类型，避免浮点累加误差。
type Grams struct {
	decimal.Decimal
}

// NewGramsFromDecimal 从 decimal 创建重量
func NewGramsFromDecimal(w decimal.Decimal) Grams {
	return Grams{Decimal: w.Round(2)}
}

// NewGramsFromString 从字符串创建重量，解析失败时返回零值
func NewGramsFromString(s string) Grams {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Grams{}
	}
	return Grams{Decimal: d.Round(2)}
}

// MarshalJSON 统一输出 2 位小数的字符串
func (g Grams) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Decimal.Round(2).StringFixed(2))
}

// UnmarshalJSON 解析重量（字符串或数字）
func (g *Grams) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		g.Decimal = d.Round(2)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	g.Decimal = decimal.NewFromFloat(f).Round(2)
	return nil
}

// Value 用于数据库写入
func (g Grams) Value() (driver.Value, error) {
	return g.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (g *Grams) Scan(value interface{}) error {
	if err := g.Decimal.Scan(value); err != nil {
		return err
	}
	g.Decimal = g.Decimal.Round(2)
	return nil
}

// String 返回 2 位小数格式
func (g Grams) String() string {
	return g.Decimal.Round(2).StringFixed(2)
}
