// models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order fulfillment statuses. "delivered" is the terminal success state and
// the trigger for commission confirmation.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Price     float64            `json:"price" bson:"price"`
	Quantity  int                `json:"quantity" bson:"quantity"`
}

type Order struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"userId" bson:"userId"`
	UserEmail   string              `json:"userEmail" bson:"userEmail"`
	Items       []OrderItem         `json:"items" bson:"items"`
	Subtotal    float64             `json:"subtotal" bson:"subtotal"`
	Discount    float64             `json:"discount" bson:"discount"`
	CouponCode  string              `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	Total       float64             `json:"total" bson:"total"`
	Status      string              `json:"status" bson:"status"`
	AffiliateID *primitive.ObjectID `json:"affiliateId,omitempty" bson:"affiliateId,omitempty"`
	Address     string              `json:"address,omitempty" bson:"address,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
	DeliveredAt *time.Time          `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
}

type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type OrderRequest struct {
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode string             `json:"couponCode,omitempty"`
	Address    string             `json:"address,omitempty"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
