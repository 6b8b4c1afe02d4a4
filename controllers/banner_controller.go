// controllers/banner_controller.go
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

type BannerController struct {
	db *mongo.Client
}

func NewBannerController(db *mongo.Client) *BannerController {
	return &BannerController{db: db}
}

func (bc *BannerController) collection() *mongo.Collection {
	return config.GetCollection(bc.db, "banners")
}

// ListActiveBanners returns banners currently in their display window,
// ordered by position
func (bc *BannerController) ListActiveBanners(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"isActive": true,
		"startsAt": bson.M{"$lte": now},
		"endsAt":   bson.M{"$gte": now},
	}

	cursor, err := bc.collection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch banners",
		})
	}

	var banners []models.Banner
	if err := cursor.All(ctx, &banners); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode banners",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Banners retrieved successfully",
		Data:    banners,
	})
}

// ListBanners returns all banners (admin)
func (bc *BannerController) ListBanners(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := bc.collection().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch banners",
		})
	}

	var banners []models.Banner
	if err := cursor.All(ctx, &banners); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode banners",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Banners retrieved successfully",
		Data:    banners,
	})
}

// CreateBanner creates a banner (admin)
func (bc *BannerController) CreateBanner(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.BannerRequest
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

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	banner := models.Banner{
		ID:        primitive.NewObjectID(),
		Title:     utils.SanitizeInput(req.Title),
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		Position:  req.Position,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		IsActive:  isActive,
		CreatedAt: time.Now(),
	}

	_, err := bc.collection().InsertOne(ctx, banner)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create banner",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Banner created successfully",
		Data:    banner,
	})
}

// UpdateBanner updates a banner (admin)
func (bc *BannerController) UpdateBanner(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid banner ID format",
		})
	}

	var req models.BannerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	update := bson.M{}
	if req.Title != "" {
		update["title"] = utils.SanitizeInput(req.Title)
	}
	if req.ImageURL != "" {
		update["imageUrl"] = req.ImageURL
	}
	if req.LinkURL != "" {
		update["linkUrl"] = req.LinkURL
	}
	if req.Position >= 0 {
		update["position"] = req.Position
	}
	if !req.StartsAt.IsZero() {
		update["startsAt"] = req.StartsAt
	}
	if !req.EndsAt.IsZero() {
		update["endsAt"] = req.EndsAt
	}
	if req.IsActive != nil {
		update["isActive"] = *req.IsActive
	}

	result, err := bc.collection().UpdateByID(ctx, objID, bson.M{"$set": update})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update banner",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Banner not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Banner updated successfully",
	})
}

// DeleteBanner removes a banner (admin)
func (bc *BannerController) DeleteBanner(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid banner ID format",
		})
	}

	result, err := bc.collection().DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete banner",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Banner not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Banner deleted successfully",
	})
}
