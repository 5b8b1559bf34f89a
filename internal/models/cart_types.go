package models

// CartEntry is one product line item in the local cart.
// At most one entry exists per product ID; quantity never drops below 1.
type CartEntry struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	ImageURL  string  `json:"image"`
	Quantity  int     `json:"qty"`
}

// CartTotals is the fold over all entries.
type CartTotals struct {
	Quantity int     `json:"qty"`
	Price    float64 `json:"price"`
}
