// models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Lesson struct {
	Title    string `json:"title" bson:"title"`
	VideoURL string `json:"videoUrl" bson:"videoUrl"`
	Duration int    `json:"duration,omitempty" bson:"duration,omitempty"` // seconds
	Position int    `json:"position" bson:"position"`
}

type Course struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Slug        string             `json:"slug" bson:"slug"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CoverURL    string             `json:"coverUrl,omitempty" bson:"coverUrl,omitempty"`
	Price       float64            `json:"price" bson:"price"`
	Lessons     []Lesson           `json:"lessons" bson:"lessons"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CourseRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"coverUrl,omitempty"`
	Price       float64  `json:"price" validate:"gte=0"`
	Lessons     []Lesson `json:"lessons,omitempty"`
	IsPublished *bool    `json:"isPublished,omitempty"`
}
