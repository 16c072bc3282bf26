// controllers/payout_controller.go
package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
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

// PayoutController records payouts against agent balances and serves the
// finance views.
type PayoutController struct {
	DB     *mongo.Client
	ledger *services.LedgerService
	hub    *websocket.Hub
}

// NewPayoutController creates a new payout controller
func NewPayoutController(db *mongo.Client, ledger *services.LedgerService, hub *websocket.Hub) *PayoutController {
	return &PayoutController{DB: db, ledger: ledger, hub: hub}
}

// RecordPayout handles POST /api/admin/agents/:id/payouts. The ledger refuses
// any amount above the agent's available balance.
func (pc *PayoutController) RecordPayout(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}

	req := new(models.PayoutRequest)
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

	payout, err := pc.ledger.RecordPayout(ctx, agentID, req)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	pc.notifyPayout(ctx, agentID, payout)

	log.Printf("Payout of %.2f recorded for agent %s", payout.Amount, agentID.Hex())

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payout recorded successfully",
		Data:    payout,
	})
}

// GetAgentPayouts handles GET /api/admin/agents/:id/payouts.
func (pc *PayoutController) GetAgentPayouts(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}
	return pc.listPayouts(c, agentID)
}

// GetMyPayouts handles GET /api/agent/payouts: the authenticated agent's own
// payout history.
func (pc *PayoutController) GetMyPayouts(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}
	return pc.listPayouts(c, agentID)
}

func (pc *PayoutController) listPayouts(c echo.Context, agentID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	page, limit := pagination(c)
	collection := config.GetCollection(pc.DB, "payouts")

	filter := bson.M{"agentId": agentID}
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count payouts",
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
			Message: "Failed to fetch payouts",
		})
	}
	defer cursor.Close(ctx)

	payouts := []models.Payout{}
	if err := cursor.All(ctx, &payouts); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode payouts",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payouts retrieved successfully",
		Data: map[string]interface{}{
			"payouts": payouts,
			"total":   total,
			"page":    page,
			"limit":   limit,
		},
	})
}

// GetCommissionLiability handles GET /api/admin/finance/liability: every
// agent with a positive available balance, i.e. money TapOnce still owes.
func (pc *PayoutController) GetCommissionLiability(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	agentsColl := config.GetCollection(pc.DB, "agents")
	cursor, err := agentsColl.Find(ctx,
		bson.M{"availableBalance": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "availableBalance", Value: -1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch agents",
		})
	}
	defer cursor.Close(ctx)

	agents := []models.Agent{}
	if err := cursor.All(ctx, &agents); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode agents",
		})
	}

	payoutsColl := config.GetCollection(pc.DB, "payouts")
	rows := make([]models.CommissionLiability, 0, len(agents))
	var totalLiability float64
	for _, agent := range agents {
		row := models.CommissionLiability{
			AgentID:          agent.ID,
			FullName:         agent.FullName,
			AvailableBalance: agent.AvailableBalance,
		}

		var lastPayout models.Payout
		err := payoutsColl.FindOne(ctx,
			bson.M{"agentId": agent.ID},
			options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		).Decode(&lastPayout)
		if err == nil {
			row.LastPayoutDate = &lastPayout.CreatedAt
		}

		totalLiability += agent.AvailableBalance
		rows = append(rows, row)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission liability retrieved successfully",
		Data: map[string]interface{}{
			"agents":         rows,
			"totalLiability": totalLiability,
		},
	})
}

func (pc *PayoutController) notifyPayout(ctx context.Context, agentID primitive.ObjectID, payout *models.Payout) {
	var user models.User
	err := config.GetCollection(pc.DB, "users").FindOne(ctx, bson.M{"agentId": agentID}).Decode(&user)
	if err != nil {
		log.Printf("No login user for agent %s: %v", agentID.Hex(), err)
		return
	}

	data := map[string]interface{}{
		"payoutId": payout.ID.Hex(),
		"amount":   payout.Amount,
		"method":   string(payout.PaymentMethod),
	}
	if err := utils.SaveNotification(pc.DB, user.ID, "Payout Recorded", "A payout has been recorded for your account", "payout", data); err != nil {
		log.Printf("Failed to save payout notification: %v", err)
	}
	if pc.hub != nil {
		pc.hub.NotifyPayoutRecorded(user.ID, data)
	}

	if user.Email != "" {
		subject := "Payout recorded on your TapOnce account"
		body := fmt.Sprintf("Dear %s,\n\nA payout of %.2f (%s) has been recorded against your commission balance.\n\nBest regards,\nTapOnce Team",
			user.FullName, payout.Amount, payout.PaymentMethod)
		if err := utils.SendEmail(user.Email, subject, body); err != nil {
			log.Printf("Failed to email payout notice to %s: %v", user.Email, err)
		}
	}
}
