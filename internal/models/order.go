package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "Received"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusPrepared  OrderStatus = "Prepared"
	OrderStatusAssigned  OrderStatus = "Assigned to delivery facility"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusPreparing,
	OrderStatusPrepared,
	OrderStatusAssigned,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

func (s OrderStatus) Valid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further lifecycle progress is expected.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

const PaymentMethodCashOnDelivery = "Cash on Delivery"

// OrderItem is a line of a placed order. Price and Size are copied from the
// catalog and the cart when the order is created and never re-read.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Title     string             `bson:"title" json:"title"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
}

type Address struct {
	Street  string `bson:"street" json:"street" validate:"required"`
	City    string `bson:"city" json:"city" validate:"required"`
	State   string `bson:"state" json:"state" validate:"required"`
	ZipCode string `bson:"zipCode" json:"zipCode" validate:"required"`
	Country string `bson:"country" json:"country" validate:"required"`
}

// CustomerInfo is the shipping contact captured on the order.
type CustomerInfo struct {
	Name            string  `bson:"name" json:"name" validate:"required"`
	Phone           string  `bson:"phone" json:"phone" validate:"required"`
	Address         Address `bson:"address" json:"address"`
	SizeDescription string  `bson:"sizeDescription,omitempty" json:"sizeDescription,omitempty"`
}

// Order defines the persisted order document.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber   string             `bson:"orderNumber" json:"orderNumber"`
	UserID        primitive.ObjectID `bson:"user" json:"user"`
	Items         []OrderItem        `bson:"items" json:"items"`
	CustomerInfo  CustomerInfo       `bson:"customerInfo" json:"customerInfo"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount"`
	Status        OrderStatus        `bson:"status" json:"status"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IsRead        bool               `bson:"isRead" json:"isRead"`
	CartCleared   bool               `bson:"cartCleared" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (o *Order) ContainsProduct(productID primitive.ObjectID) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
