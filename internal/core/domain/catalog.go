package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"size:255;not null"`
	ParentID *int64
	Parent   *Category `gorm:"foreignKey:ParentID"`
	Path     string    `gorm:"size:255"`
	Level    int       `gorm:"not null;default:1"`
}

func (Category) TableName() string { return "categories" }

// Product quantity is the single source of truth for availability.
// It is only mutated under a row lock held by the inventory ledger.
type Product struct {
	ID         int64           `gorm:"primaryKey"`
	Name       string          `gorm:"size:255;not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CategoryID int64           `gorm:"not null"`
	Category   *Category       `gorm:"foreignKey:CategoryID"`
}

func (Product) TableName() string { return "products" }

type Customer struct {
	ID      int64  `gorm:"primaryKey"`
	Name    string `gorm:"size:255;not null"`
	Phone   string `gorm:"size:50"`
	Address string `gorm:"type:text"`
}

func (Customer) TableName() string { return "customers" }
