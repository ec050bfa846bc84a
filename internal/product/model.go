package product

import "time"

// Product carries the catalog fields plus the two inventory counters.
// Stock and reserved are mutated only through the inventory ledger's
// conditional operations; the admin endpoints here may set stock outright,
// which the database check constraints still keep consistent.
type Product struct {
	ID            int64     `json:"id"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	PreviousPrice *float64  `json:"previousPrice,omitempty"`
	Images        []string  `json:"images"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	Stock         int       `json:"stock"`
	Reserved      int       `json:"reserved"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
