package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is a live cart line; price is resolved from the catalog on read.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Size      string             `bson:"size" json:"size"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// User represents the application user account. Cart and wishlist live on
// the same document so every mutation is a single-document write.
type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Email         string               `bson:"email" json:"email"`
	PasswordHash  string               `bson:"password" json:"-"`
	Phone         string               `bson:"phone,omitempty" json:"phone,omitempty"`
	IsAdmin       bool                 `bson:"isAdmin" json:"isAdmin"`
	Cart          []CartItem           `bson:"cart" json:"cart"`
	CartUpdatedAt time.Time            `bson:"cartUpdatedAt" json:"-"`
	Wishlist      []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the caller resolved once per request from a bearer token.
type Identity struct {
	UserID  primitive.ObjectID
	Email   string
	IsAdmin bool
}

func (i Identity) Authenticated() bool {
	return !i.UserID.IsZero()
}
