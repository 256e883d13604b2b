package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Review is unique per (user, product, order).
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	OrderID   primitive.ObjectID `bson:"order" json:"order"`
	Rating    int                `bson:"rating" json:"rating"`
	Title     string             `bson:"title" json:"title"`
	Comment   string             `bson:"comment" json:"comment"`
	Images    []string           `bson:"images" json:"images"`
	Verified  bool               `bson:"verified" json:"verified"`
	Status    ReviewStatus       `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RatingSummary mirrors the cached aggregate fields on Product.
type RatingSummary struct {
	AverageRating float64 `bson:"averageRating" json:"averageRating"`
	ReviewCount   int     `bson:"reviewCount" json:"reviewCount"`
}
