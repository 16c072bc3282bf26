// controllers/order_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taponce/taponce_backend/config"
	"github.com/taponce/taponce_backend/middleware"
	"github.com/taponce/taponce_backend/models"
	"github.com/taponce/taponce_backend/services"
	"github.com/taponce/taponce_backend/utils"
	"github.com/taponce/taponce_backend/websocket"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderController handles order creation and the fulfillment pipeline.
type OrderController struct {
	DB      *mongo.Client
	service *services.OrderService
	hub     *websocket.Hub
}

// NewOrderController creates a new order controller
func NewOrderController(db *mongo.Client, service *services.OrderService, hub *websocket.Hub) *OrderController {
	return &OrderController{DB: db, service: service, hub: hub}
}

// CreateOrder handles POST /api/agent/orders. The selling agent comes from
// the JWT, never from the payload.
func (oc *OrderController) CreateOrder(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}

	req := new(models.CreateOrderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := oc.service.CreateOrder(ctx, agentID, req)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	log.Printf("Order #%d created by agent %s", order.OrderNumber, agentID.Hex())

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order created successfully",
		Data:    order,
	})
}

// CreateDirectOrder handles POST /api/customer/orders, the website checkout.
func (oc *OrderController) CreateDirectOrder(c echo.Context) error {
	req := new(models.CreateDirectOrderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := oc.service.CreateDirectOrder(ctx, req)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	// Attach the order to the logged-in customer when there is one.
	if userID, err := primitive.ObjectIDFromHex(getUserID(c)); err == nil {
		collection := config.GetCollection(oc.DB, "orders")
		collection.UpdateOne(ctx, bson.M{"_id": order.ID}, bson.M{"$set": bson.M{"customerId": userID}})
		order.CustomerID = &userID
	}

	log.Printf("Direct order #%d created", order.OrderNumber)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order placed successfully",
		Data:    order,
	})
}

// GetOrders handles GET /api/admin/orders with status filtering, text search
// and pagination.
func (oc *OrderController) GetOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		if !models.OrderStatus(status).IsValid() {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Unknown order status: " + status,
			})
		}
		filter["status"] = status
	}
	if agentHex := c.QueryParam("agentId"); agentHex != "" {
		agentID, err := primitive.ObjectIDFromHex(agentHex)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid agent ID",
			})
		}
		filter["agentId"] = agentID
	}
	if search := c.QueryParam("search"); search != "" {
		clauses := []bson.M{
			{"customerName": bson.M{"$regex": search, "$options": "i"}},
			{"customerPhone": bson.M{"$regex": search, "$options": "i"}},
			{"customerEmail": bson.M{"$regex": search, "$options": "i"}},
		}
		if number, err := strconv.ParseInt(search, 10, 64); err == nil {
			clauses = append(clauses, bson.M{"orderNumber": number})
		}
		filter["$or"] = clauses
	}

	return oc.listOrders(ctx, c, filter)
}

// GetAgentOrders handles GET /api/agent/orders: the authenticated agent's own
// orders only.
func (oc *OrderController) GetAgentOrders(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"agentId": agentID}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}
	return oc.listOrders(ctx, c, filter)
}

// GetCustomerOrders handles GET /api/customer/orders: orders placed by the
// logged-in customer.
func (oc *OrderController) GetCustomerOrders(c echo.Context) error {
	userID, err := primitive.ObjectIDFromHex(getUserID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	return oc.listOrders(ctx, c, bson.M{"customerId": userID})
}

func (oc *OrderController) listOrders(ctx context.Context, c echo.Context, filter bson.M) error {
	page, limit := pagination(c)

	collection := config.GetCollection(oc.DB, "orders")
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count orders",
		})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch orders",
		})
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode orders",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Orders retrieved successfully",
		Data: models.OrderListResponse{
			Orders: orders,
			Total:  total,
			Page:   page,
			Limit:  limit,
		},
	})
}

// GetOrder handles GET /api/admin/orders/:id.
func (oc *OrderController) GetOrder(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := oc.service.GetOrder(ctx, id)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order retrieved successfully",
		Data:    order,
	})
}

// TrackOrder handles GET /api/orders/track/:orderNumber: the public tracking
// view a customer reaches from the order confirmation. Pricing and commission
// fields are never exposed here.
func (oc *OrderController) TrackOrder(c echo.Context) error {
	number, err := strconv.ParseInt(c.Param("orderNumber"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order number",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = config.GetCollection(oc.DB, "orders").FindOne(ctx, bson.M{"orderNumber": number}).Decode(&order)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Order not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order tracking retrieved successfully",
		Data: models.OrderTracking{
			OrderNumber:    order.OrderNumber,
			Status:         order.Status,
			CardDesignName: order.CardDesign.Name,
			TrackingNumber: order.TrackingNumber,
			CreatedAt:      order.CreatedAt,
			ShippedAt:      order.ShippedAt,
			DeliveredAt:    order.DeliveredAt,
		},
	})
}

// GetKanban handles GET /api/admin/orders/kanban: every order grouped by
// status, one column per pipeline stage.
func (oc *OrderController) GetKanban(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	collection := config.GetCollection(oc.DB, "orders")

	columns := make([]models.KanbanColumn, 0, len(models.OrderStatuses()))
	for _, status := range models.OrderStatuses() {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(maxPageSize)
		cursor, err := collection.Find(ctx, bson.M{"status": status}, opts)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to fetch orders",
			})
		}

		orders := []models.Order{}
		if err := cursor.All(ctx, &orders); err != nil {
			cursor.Close(ctx)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to decode orders",
			})
		}
		cursor.Close(ctx)

		columns = append(columns, models.KanbanColumn{Status: status, Orders: orders})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Kanban board retrieved successfully",
		Data:    columns,
	})
}

// UpdateOrderStatus handles PUT /api/admin/orders/:id/status.
func (oc *OrderController) UpdateOrderStatus(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
		})
	}

	req := new(models.UpdateOrderStatusRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := oc.service.Transition(ctx, id, req)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	oc.notifyStatusChange(order)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order status updated successfully",
		Data:    order,
	})
}

// ApproveOrder handles POST /api/admin/orders/:id/approve.
func (oc *OrderController) ApproveOrder(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
		})
	}

	var body struct {
		PortfolioSlug string `json:"portfolioSlug,omitempty"`
		AdminNotes    string `json:"adminNotes,omitempty"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := oc.service.Approve(ctx, id, body.PortfolioSlug, body.AdminNotes)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	oc.notifyStatusChange(order)
	oc.notifyCommission(order)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order approved successfully",
		Data:    order,
	})
}

// ApproveOrderBelowMsp handles POST /api/admin/orders/:id/approve-below-msp,
// the explicit override for sales under the minimum selling price. The order
// is approved with zero commission.
func (oc *OrderController) ApproveOrderBelowMsp(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
		})
	}

	var body struct {
		AdminNotes string `json:"adminNotes,omitempty"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := oc.service.ApproveBelowMsp(ctx, id, body.AdminNotes)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	oc.notifyStatusChange(order)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Below-MSP order approved with zero commission",
		Data:    order,
	})
}

// RejectOrder handles POST /api/admin/orders/:id/reject.
func (oc *OrderController) RejectOrder(c echo.Context) error {
	return oc.closeOrder(c, models.StatusRejected)
}

// CancelOrder handles POST /api/admin/orders/:id/cancel.
func (oc *OrderController) CancelOrder(c echo.Context) error {
	return oc.closeOrder(c, models.StatusCancelled)
}

func (oc *OrderController) closeOrder(c echo.Context, target models.OrderStatus) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
		})
	}

	var body struct {
		Reason     string `json:"reason,omitempty"`
		AdminNotes string `json:"adminNotes,omitempty"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	req := &models.UpdateOrderStatusRequest{
		Status:     target,
		AdminNotes: body.AdminNotes,
	}
	if target == models.StatusRejected {
		req.RejectionReason = body.Reason
	}

	order, err := oc.service.Transition(ctx, id, req)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	oc.notifyStatusChange(order)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order " + string(target),
		Data:    order,
	})
}

// notifyStatusChange fans a status change out to the selling agent: in-app
// record plus FCM, the live websocket channel when connected, and an email on
// approval.
func (oc *OrderController) notifyStatusChange(order *models.Order) {
	if order.AgentID == nil {
		return
	}
	user, err := oc.agentUser(*order.AgentID)
	if err != nil {
		log.Printf("No login user for agent %s: %v", order.AgentID.Hex(), err)
		return
	}

	utils.NotifyOrderStatusChange(oc.DB, user.ID, order)
	if oc.hub != nil {
		oc.hub.NotifyOrderStatus(user.ID, order)
	}

	if order.Status == models.StatusApproved && user.Email != "" {
		subject := fmt.Sprintf("Order #%d approved", order.OrderNumber)
		body := fmt.Sprintf("Dear %s,\n\nOrder #%d for %s has been approved and is headed to printing.\n\nBest regards,\nTapOnce Team",
			user.FullName, order.OrderNumber, order.CustomerName)
		if err := utils.SendEmail(user.Email, subject, body); err != nil {
			log.Printf("Failed to email approval to %s: %v", user.Email, err)
		}
	}
}

func (oc *OrderController) notifyCommission(order *models.Order) {
	if order.AgentID == nil || order.CommissionAmount <= 0 {
		return
	}
	user, err := oc.agentUser(*order.AgentID)
	if err != nil {
		return
	}

	title := "Commission Earned"
	message := "You earned a commission on order"
	if err := utils.SaveNotification(oc.DB, user.ID, title, message, "commission", map[string]interface{}{
		"orderId": order.ID.Hex(),
		"amount":  order.CommissionAmount,
	}); err != nil {
		log.Printf("Failed to save commission notification: %v", err)
	}
	if oc.hub != nil {
		oc.hub.NotifyCommissionEarned(user.ID, map[string]interface{}{
			"orderId": order.ID.Hex(),
			"amount":  order.CommissionAmount,
		})
	}
}

// agentUser resolves the login user behind an agent document.
func (oc *OrderController) agentUser(agentID primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := config.GetCollection(oc.DB, "users").FindOne(ctx, bson.M{"agentId": agentID}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// pagination reads page/limit query params with the catalog-wide defaults.
func pagination(c echo.Context) (page, limit int64) {
	page = 1
	limit = defaultPageSize
	if p, err := strconv.ParseInt(c.QueryParam("page"), 10, 64); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil && l > 0 {
		limit = l
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// getUserID returns the authenticated user's id hex, or "".
func getUserID(c echo.Context) string {
	if userID, ok := c.Get("userId").(string); ok {
		return userID
	}
	return ""
}

// orderErrorResponse maps order and ledger service errors onto HTTP statuses.
func orderErrorResponse(c echo.Context, err error) error {
	var transitionErr *services.TransitionError
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrAgentNotFound),
		errors.Is(err, services.ErrDesignNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrBelowMspApproval),
		errors.Is(err, services.ErrOverrideNotRequired):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: err.Error(),
		})
	case errors.As(err, &transitionErr):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrAgentInactive),
		errors.Is(err, services.ErrDesignInactive),
		errors.Is(err, services.ErrMissingTrackingNumber),
		errors.Is(err, services.ErrMissingRejectionReason),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPaymentStatus),
		errors.Is(err, services.ErrInvalidPayoutAmount),
		errors.Is(err, services.ErrInvalidPaymentMethod),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, utils.ErrInvalidSalePrice),
		errors.Is(err, utils.ErrInvalidMsp),
		errors.Is(err, utils.ErrInvalidBaseCommission):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		log.Printf("Unexpected error: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
}
