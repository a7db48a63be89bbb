package domain

import "time"

// Inventory movement types (backend values).
const (
	MovementIn  = "entrada"
	MovementOut = "saida"
)

// InventoryItem is a stocked supply. Unit is the counting unit
// (unidade, caixa, pacote...).
type InventoryItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Unit        string    `json:"unit"`
	MinQuantity int       `json:"min_quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// LowStock reports whether the item is at or below its minimum quantity.
func (i *InventoryItem) LowStock() bool {
	return i.MinQuantity > 0 && i.Quantity <= i.MinQuantity
}

// InventoryMovement is one stock entry or withdrawal. DoctorID/DoctorName are
// set when a withdrawal is attributed to a doctor; CreatedBy records the
// staff account that registered it.
type InventoryMovement struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	ItemName   string    `json:"item_name"`
	Type       string    `json:"type"`
	Quantity   int       `json:"quantity"`
	DoctorID   string    `json:"doctor_id,omitempty"`
	DoctorName string    `json:"doctor_name,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
}
