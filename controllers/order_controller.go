// controllers/order_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitrinehub/vitrine_backend/config"
	"github.com/vitrinehub/vitrine_backend/middleware"
	"github.com/vitrinehub/vitrine_backend/models"
	"github.com/vitrinehub/vitrine_backend/services"
	"github.com/vitrinehub/vitrine_backend/utils"
	"github.com/vitrinehub/vitrine_backend/websocket"
)

const defaultCommissionPercent = 10.0

// validStatusTransitions encodes the fulfillment flow; cancelled is reachable
// from any non-terminal state.
var validStatusTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusDelivered, models.OrderStatusCancelled},
}

type OrderController struct {
	db        *mongo.Client
	ledger    *services.Ledger
	inventory *services.Inventory
	wsHub     *websocket.Hub
}

func NewOrderController(db *mongo.Client, ledger *services.Ledger, inventory *services.Inventory, wsHub *websocket.Hub) *OrderController {
	return &OrderController{db: db, ledger: ledger, inventory: inventory, wsHub: wsHub}
}

func (oc *OrderController) collection() *mongo.Collection {
	return config.GetCollection(oc.db, "orders")
}

func commissionPercent() float64 {
	if vStr := os.Getenv("AFFILIATE_COMMISSION_PERCENT"); vStr != "" {
		if v, err := strconv.ParseFloat(vStr, 64); err == nil && v >= 0 {
			return v
		}
		log.Printf("Invalid AFFILIATE_COMMISSION_PERCENT %q, using default of %.1f", vStr, defaultCommissionPercent)
	}
	return defaultCommissionPercent
}

// CreateOrder places an order for the authenticated user. When the buyer was
// referred by an affiliate, a pending commission is recorded in the ledger.
func (oc *OrderController) CreateOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	var req models.OrderRequest
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

	var buyer models.User
	err = config.GetCollection(oc.db, "users").FindOne(ctx, bson.M{"_id": userObjID}).Decode(&buyer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load user account",
		})
	}

	// Resolve items against the catalog at current prices, reserving stock
	// atomically so two orders cannot both claim the last unit
	items, err := oc.inventory.ReserveItems(ctx, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Product not found or inactive",
			})
		case errors.Is(err, services.ErrInsufficientStock):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to reserve stock",
			})
		}
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}

	// Apply coupon, if any. Any rejection from here on returns the reserved
	// stock before failing the order.
	var discount float64
	var couponCode string
	if req.CouponCode != "" {
		var coupon models.Coupon
		err = config.GetCollection(oc.db, "coupons").FindOne(ctx, bson.M{"code": req.CouponCode}).Decode(&coupon)
		if err != nil {
			oc.inventory.ReleaseItems(ctx, items)
			if err == mongo.ErrNoDocuments {
				return c.JSON(http.StatusBadRequest, models.Response{
					Status:  http.StatusBadRequest,
					Message: "Coupon not found",
				})
			}
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to fetch coupon",
			})
		}
		if !coupon.IsValidAt(time.Now(), subtotal) {
			oc.inventory.ReleaseItems(ctx, items)
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Coupon is not valid for this order",
			})
		}
		discount = coupon.DiscountFor(subtotal)
		couponCode = coupon.Code

		_, err = config.GetCollection(oc.db, "coupons").UpdateByID(ctx, coupon.ID,
			bson.M{"$inc": bson.M{"usedCount": 1}})
		if err != nil {
			log.Printf("Failed to increment coupon usage for %s: %v", coupon.Code, err)
		}
	}

	now := time.Now()
	order := models.Order{
		ID:          primitive.NewObjectID(),
		UserID:      userObjID,
		UserEmail:   buyer.Email,
		Items:       items,
		Subtotal:    subtotal,
		Discount:    discount,
		CouponCode:  couponCode,
		Total:       subtotal - discount,
		Status:      models.OrderStatusPending,
		AffiliateID: buyer.ReferredBy,
		Address:     utils.SanitizeInput(req.Address),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = oc.collection().InsertOne(ctx, order)
	if err != nil {
		oc.inventory.ReleaseItems(ctx, items)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create order",
		})
	}

	// Record the affiliate commission for referred buyers. The order exists
	// either way; a ledger failure is surfaced but does not undo the order.
	if buyer.ReferredBy != nil {
		amount := order.Total * commissionPercent() / 100
		_, err := oc.ledger.RecordCommission(ctx, order.ID, *buyer.ReferredBy, buyer.Email, amount)
		if err != nil {
			log.Printf("Failed to record commission for order %s: %v", order.ID.Hex(), err)
			return c.JSON(http.StatusCreated, models.Response{
				Status:  http.StatusCreated,
				Message: "Order created, but recording the affiliate commission failed",
				Data:    order,
			})
		}
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order created successfully",
		Data:    order,
	})
}

// GetMyOrders lists the authenticated user's orders
func (oc *OrderController) GetMyOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	cursor, err := oc.collection().Find(ctx, bson.M{"userId": userObjID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch orders",
		})
	}

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode orders",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// ListOrders lists all orders, optionally filtered by status (admin)
func (oc *OrderController) ListOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}

	cursor, err := oc.collection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch orders",
		})
	}

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode orders",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// UpdateOrderStatus moves an order through its fulfillment flow (admin).
// Reaching "delivered" confirms the order's commissions in the ledger; the
// confirmation is idempotent, so a repeated delivered update is harmless.
func (oc *OrderController) UpdateOrderStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID format",
		})
	}

	var req models.OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	var order models.Order
	err = oc.collection().FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Order not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch order",
		})
	}

	if !isValidTransition(order.Status, req.Status) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Cannot move order from %s to %s", order.Status, req.Status),
		})
	}

	now := time.Now()
	update := bson.M{"status": req.Status, "updatedAt": now}
	if req.Status == models.OrderStatusDelivered {
		update["deliveredAt"] = now
	}

	_, err = oc.collection().UpdateByID(ctx, orderID, bson.M{"$set": update})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update order status",
		})
	}

	// Post-transition hook: confirm commissions once the order is delivered.
	// The order update above is not rolled back if this fails; the ledger
	// confirmation is a compare-and-set, so retrying the delivered update
	// converges.
	if req.Status == models.OrderStatusDelivered {
		confirmed, err := oc.ledger.ConfirmCommissionsForOrder(ctx, orderID, now)
		if err != nil {
			log.Printf("Failed to confirm commissions for order %s: %v", orderID.Hex(), err)
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Order marked delivered, but commission confirmation failed; retry the status update",
			})
		}
		if confirmed > 0 && order.AffiliateID != nil {
			oc.wsHub.BroadcastToAdmins(websocket.Event{
				Type:    websocket.EventTypeOrderDelivered,
				Message: "Order delivered, affiliate commission confirmed",
				Data:    map[string]interface{}{"orderId": orderID.Hex()},
			})
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order status updated successfully",
	})
}

func isValidTransition(from, to string) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
