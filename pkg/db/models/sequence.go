package models

// Sequence is a dedicated gap-free counter row per business number prefix
// (EST-, INV-). Kept separate from row identity: the human-readable numbers
// must stay monotonic and gap-free even if rows are created and rolled back.
type Sequence struct {
	Prefix    string `gorm:"column:prefix;primaryKey" json:"prefix"`
	LastValue int64  `gorm:"column:last_value;not null" json:"last_value"`
}
