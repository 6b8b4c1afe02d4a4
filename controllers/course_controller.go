// controllers/course_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitrinehub/vitrine_backend/config"
	"github.com/vitrinehub/vitrine_backend/models"
	"github.com/vitrinehub/vitrine_backend/utils"
)

type CourseController struct {
	db *mongo.Client
}

func NewCourseController(db *mongo.Client) *CourseController {
	return &CourseController{db: db}
}

func (cc *CourseController) collection() *mongo.Collection {
	return config.GetCollection(cc.db, "courses")
}

// ListCourses returns published courses for the storefront
func (cc *CourseController) ListCourses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := cc.collection().Find(ctx, bson.M{"isPublished": true},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch courses",
		})
	}

	var courses []models.Course
	if err := cursor.All(ctx, &courses); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode courses",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Courses retrieved successfully",
		Data:    courses,
	})
}

// GetCourse returns one course with its lesson list
func (cc *CourseController) GetCourse(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid course ID format",
		})
	}

	var course models.Course
	err = cc.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&course)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Course not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch course",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Course retrieved successfully",
		Data:    course,
	})
}

// CreateCourse creates a course (admin)
func (cc *CourseController) CreateCourse(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CourseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	isPublished := false
	if req.IsPublished != nil {
		isPublished = *req.IsPublished
	}

	lessons := req.Lessons
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	for i := range lessons {
		lessons[i].Position = i
	}

	now := time.Now()
	course := models.Course{
		ID:          primitive.NewObjectID(),
		Title:       utils.SanitizeInput(req.Title),
		Slug:        utils.Slugify(req.Title),
		Description: utils.SanitizeInput(req.Description),
		CoverURL:    req.CoverURL,
		Price:       req.Price,
		Lessons:     lessons,
		IsPublished: isPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := cc.collection().InsertOne(ctx, course)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create course",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Course created successfully",
		Data:    course,
	})
}

// UpdateCourse updates a course (admin)
func (cc *CourseController) UpdateCourse(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid course ID format",
		})
	}

	var req models.CourseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.Title != "" {
		update["title"] = utils.SanitizeInput(req.Title)
		update["slug"] = utils.Slugify(req.Title)
	}
	if req.Description != "" {
		update["description"] = utils.SanitizeInput(req.Description)
	}
	if req.CoverURL != "" {
		update["coverUrl"] = req.CoverURL
	}
	if req.Price >= 0 {
		update["price"] = req.Price
	}
	if req.Lessons != nil {
		for i := range req.Lessons {
			req.Lessons[i].Position = i
		}
		update["lessons"] = req.Lessons
	}
	if req.IsPublished != nil {
		update["isPublished"] = *req.IsPublished
	}

	result, err := cc.collection().UpdateByID(ctx, objID, bson.M{"$set": update})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update course",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Course not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Course updated successfully",
	})
}

// DeleteCourse removes a course (admin)
func (cc *CourseController) DeleteCourse(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid course ID format",
		})
	}

	result, err := cc.collection().DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete course",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Course not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Course deleted successfully",
	})
}
