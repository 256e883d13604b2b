package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	ShortDescription string             `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	Price            float64            `bson:"price" json:"price"`
	OnSale           bool               `bson:"onSale" json:"onSale"`
	SalePrice        float64            `bson:"salePrice" json:"salePrice"`
	IsOnSale         bool               `bson:"-" json:"isOnSale"`
	Images           StringList         `bson:"images" json:"images"`
	Sizes            StringList         `bson:"sizes" json:"sizes"`
	Colors           StringList         `bson:"colors" json:"colors"`
	Category         primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	Stock            int                `bson:"stock" json:"stock"`
	InStock          bool               `bson:"-" json:"inStock"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	AverageRating    float64            `bson:"averageRating" json:"averageRating"`
	ReviewCount      int                `bson:"reviewCount" json:"reviewCount"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EffectivePrice is the unit price a buyer pays right now.
func (p *Product) EffectivePrice() float64 {
	return EffectivePrice(p.Price, p.OnSale, p.SalePrice)
}

// Decorate fills the derived, non-persisted fields.
func (p *Product) Decorate() {
	p.IsOnSale = IsOnSale(p.Price, p.OnSale, p.SalePrice)
	p.InStock = p.Stock > 0
}
