package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeExpense  CategoryType = "expense"
	CategoryTypeTransfer CategoryType = "transfer"
)

// Valid reports whether t is one of the known category types.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeTransfer:
		return true
	}
	return false
}

// Category represents a transaction category. Categories nest at most one
// level: when ParentID is set, the parent's own ParentID is nil.
type Category struct {
	Base
	Name     string       `gorm:"not null;index" json:"name"`
	Type     CategoryType `gorm:"not null;index" json:"type"`
	ParentID *string      `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	// Parent is a snapshot resolved by an explicit lookup, never preloaded.
	Parent *Category `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"parent,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
