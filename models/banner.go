// models/banner.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Banner struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	ImageURL  string             `json:"imageUrl" bson:"imageUrl"`
	LinkURL   string             `json:"linkUrl,omitempty" bson:"linkUrl,omitempty"`
	Position  int                `json:"position" bson:"position"`
	StartsAt  time.Time          `json:"startsAt" bson:"startsAt"`
	EndsAt    time.Time          `json:"endsAt" bson:"endsAt"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type BannerRequest struct {
	Title    string    `json:"title" validate:"required"`
	ImageURL string    `json:"imageUrl" validate:"required,url"`
	LinkURL  string    `json:"linkUrl,omitempty"`
	Position int       `json:"position,omitempty"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	IsActive *bool     `json:"isActive,omitempty"`
}
