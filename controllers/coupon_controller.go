// controllers/coupon_controller.go
package controllers

import (
	"context"
	"net/http"
	"strings"
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

type CouponController struct {
	db *mongo.Client
}

func NewCouponController(db *mongo.Client) *CouponController {
	return &CouponController{db: db}
}

func (cc *CouponController) collection() *mongo.Collection {
	return config.GetCollection(cc.db, "coupons")
}

// ValidateCoupon checks a code against a subtotal for the checkout form
func (cc *CouponController) ValidateCoupon(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code := strings.ToUpper(strings.TrimSpace(c.QueryParam("code")))
	if code == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Coupon code is required",
		})
	}

	subtotal, err := utils.ParseFloat(c.QueryParam("subtotal"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid subtotal",
		})
	}

	var coupon models.Coupon
	err = cc.collection().FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Coupon not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch coupon",
		})
	}

	if !coupon.IsValidAt(time.Now(), subtotal) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Coupon is not valid for this order",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Coupon is valid",
		Data: map[string]interface{}{
			"code":     coupon.Code,
			"discount": coupon.DiscountFor(subtotal),
		},
	})
}

// ListCoupons lists all coupons (admin)
func (cc *CouponController) ListCoupons(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := cc.collection().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch coupons",
		})
	}

	var coupons []models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode coupons",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Coupons retrieved successfully",
		Data:    coupons,
	})
}

// CreateCoupon creates a coupon (admin)
func (cc *CouponController) CreateCoupon(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CouponRequest
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

	if req.Type == models.CouponTypePercent && req.Value > 100 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Percent discount cannot exceed 100",
		})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	coupon := models.Coupon{
		ID:         primitive.NewObjectID(),
		Code:       strings.ToUpper(strings.TrimSpace(req.Code)),
		Type:       req.Type,
		Value:      req.Value,
		MinTotal:   req.MinTotal,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		MaxUses:    req.MaxUses,
		IsActive:   isActive,
		CreatedAt:  time.Now(),
	}

	_, err := cc.collection().InsertOne(ctx, coupon)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A coupon with this code already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create coupon",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Coupon created successfully",
		Data:    coupon,
	})
}

// DeleteCoupon removes a coupon (admin)
func (cc *CouponController) DeleteCoupon(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid coupon ID format",
		})
	}

	result, err := cc.collection().DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete coupon",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Coupon not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Coupon deleted successfully",
	})
}
