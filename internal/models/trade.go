package models

import (
	"strings"
	"time"
)

// Known flip statuses. Stored values keep the case supplied by the export;
// use HasStatus for comparisons.
const (
	StatusFinished = "FINISHED"
	StatusSelling  = "SELLING"
)

// Trade is one completed or in-progress flip imported from a ledger export.
// (FirstBuyTime, LastSellTime, Item) is the natural key.
type Trade struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstBuyTime    string    `gorm:"uniqueIndex:idx_trades_natural_key;not null" json:"first_buy_time"`
	LastSellTime    string    `gorm:"uniqueIndex:idx_trades_natural_key;not null" json:"last_sell_time"`
	Account         string    `json:"account"`
	Item            string    `gorm:"uniqueIndex:idx_trades_natural_key;not null;index" json:"item"`
	Status          string    `gorm:"index" json:"status"`
	Bought          int64     `gorm:"not null;default:0" json:"bought"`
	Sold            int64     `gorm:"not null;default:0" json:"sold"`
	AvgBuyPrice     int64     `gorm:"not null;default:0" json:"avg_buy_price"`
	AvgSellPrice    int64     `gorm:"not null;default:0" json:"avg_sell_price"`
	Tax             int64     `gorm:"not null;default:0" json:"tax"`
	Profit          int64     `gorm:"not null;default:0" json:"profit"`
	ProfitEa        int64     `gorm:"not null;default:0" json:"profit_ea"`
	ImportTimestamp time.Time `gorm:"not null;index" json:"import_timestamp"`
}

// Key returns the natural key of the trade.
func (t Trade) Key() NaturalKey {
	return NaturalKey{FirstBuyTime: t.FirstBuyTime, LastSellTime: t.LastSellTime, Item: t.Item}
}

// HasStatus reports whether the trade's status equals s, ignoring case.
func (t Trade) HasStatus(s string) bool {
	return strings.EqualFold(strings.TrimSpace(t.Status), s)
}

// NaturalKey identifies a flip independently of its surrogate id.
type NaturalKey struct {
	FirstBuyTime string
	LastSellTime string
	Item         string
}
