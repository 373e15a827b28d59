package ingest

import (
	"math"
	"strings"

	"osrs-trade-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// Row is one raw record from a ledger export, keyed by column name.
type Row map[string]string

// Field names a column of the export. Exports label columns either with a
// human-readable Label or with a snake_case Key.
type Field struct {
	Label string
	Key   string
}

var (
	FieldFirstBuyTime = Field{Label: "First buy time", Key: "first_buy_time"}
	FieldLastSellTime = Field{Label: "Last sell time", Key: "last_sell_time"}
	FieldAccount      = Field{Label: "Account", Key: "account"}
	FieldItem         = Field{Label: "Item", Key: "item"}
	FieldStatus       = Field{Label: "Status", Key: "status"}
	FieldBought       = Field{Label: "Bought", Key: "bought"}
	FieldSold         = Field{Label: "Sold", Key: "sold"}
	FieldAvgBuyPrice  = Field{Label: "Avg. buy price", Key: "avg_buy_price"}
	FieldAvgSellPrice = Field{Label: "Avg. sell price", Key: "avg_sell_price"}
	FieldTax          = Field{Label: "Tax", Key: "tax"}
	FieldProfit       = Field{Label: "Profit", Key: "profit"}
	FieldProfitEa     = Field{Label: "Profit ea.", Key: "profit_ea"}
)

// Lookup returns the value of f, preferring the labelled column and falling
// back to the key when the label is absent or blank.
func (r Row) Lookup(f Field) (string, bool) {
	if v, ok := r[f.Label]; ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	v, ok := r[f.Key]
	if !ok {
		_, ok = r[f.Label]
	}
	return v, ok
}

func (r Row) text(f Field) string {
	v, _ := r.Lookup(f)
	return strings.TrimSpace(v)
}

// Issue records a numeric cell that could not be parsed and was replaced by 0.
type Issue struct {
	Field string
	Value string
}

// Normalize maps a raw row onto a trade draft. It never fails: blank numeric
// cells become 0 silently, unparsable ones become 0 and are reported as
// issues. Text fields are trimmed but otherwise kept as supplied.
func Normalize(row Row) (models.Trade, []Issue) {
	var issues []Issue
	num := func(f Field, nonNegative bool) int64 {
		raw := row.text(f)
		if raw == "" {
			return 0
		}
		n, ok := parseInt(raw)
		if !ok || (nonNegative && n < 0) {
			issues = append(issues, Issue{Field: f.Key, Value: raw})
			return 0
		}
		return n
	}

	trade := models.Trade{
		FirstBuyTime: row.text(FieldFirstBuyTime),
		LastSellTime: row.text(FieldLastSellTime),
		Account:      row.text(FieldAccount),
		Item:         row.text(FieldItem),
		Status:       row.text(FieldStatus),
		Bought:       num(FieldBought, true),
		Sold:         num(FieldSold, true),
		AvgBuyPrice:  num(FieldAvgBuyPrice, false),
		AvgSellPrice: num(FieldAvgSellPrice, false),
		Tax:          num(FieldTax, false),
		Profit:       num(FieldProfit, false),
		ProfitEa:     num(FieldProfitEa, false),
	}
	return trade, issues
}

// parseInt accepts spreadsheet-formatted numbers such as "1,234", "-50" or
// "12.7" (truncated toward zero). Values outside the int64 range are rejected.
func parseInt(raw string) (int64, bool) {
	cleaned := strings.NewReplacer(",", "", " ", "", "_", "").Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0, false
	}
	return d.IntPart(), true
}

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)
