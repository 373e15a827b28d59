package models

// InsertResult reports the outcome of an idempotent insert. When Inserted is
// false, ID is the id of the record already holding the natural key.
type InsertResult struct {
	ID       uint `json:"id"`
	Inserted bool `json:"inserted"`
}

// ItemProfit is the summed profit of one item over its finished flips.
type ItemProfit struct {
	Item        string `json:"item"`
	TotalProfit int64  `json:"total_profit"`
	Flips       int64  `json:"flips"`
}

// FinishedTotals aggregates the finished subset of the store.
type FinishedTotals struct {
	Profit int64
	Count  int64
}
