// controllers/agent_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/taponce/taponce_backend/config"
	"github.com/taponce/taponce_backend/middleware"
	"github.com/taponce/taponce_backend/models"
	"github.com/taponce/taponce_backend/services"
	"github.com/taponce/taponce_backend/utils"
)

// AgentController manages agent provisioning and the agent dashboard
// surfaces.
type AgentController struct {
	DB     *mongo.Client
	ledger *services.LedgerService
}

// NewAgentController creates a new agent controller
func NewAgentController(db *mongo.Client, ledger *services.LedgerService) *AgentController {
	return &AgentController{DB: db, ledger: ledger}
}

func (ac *AgentController) agents() *mongo.Collection {
	return config.GetCollection(ac.DB, "agents")
}

// CreateAgent handles POST /api/admin/agents: provisions an agent with a
// generated referral code and a temporary password, creates the login user,
// and emails the credentials.
func (ac *AgentController) CreateAgent(c echo.Context) error {
	req := new(models.CreateAgentRequest)
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

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	// The referral structure is capped at two levels: a parent agent may not
	// itself have a parent.
	var parentID *primitive.ObjectID
	if req.ParentAgentID != "" {
		pid, err := primitive.ObjectIDFromHex(req.ParentAgentID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid parent agent ID",
			})
		}
		var parent models.Agent
		if err := ac.agents().FindOne(ctx, bson.M{"_id": pid}).Decode(&parent); err != nil {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Parent agent not found",
			})
		}
		if parent.ParentAgentID != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Parent agent already has a parent; only two levels are allowed",
			})
		}
		parentID = &pid
	}

	usersColl := config.GetCollection(ac.DB, "users")
	count, err := usersColl.CountDocuments(ctx, bson.M{"email": strings.ToLower(req.Email)})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing users",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An account with this email already exists",
		})
	}

	tempPassword := strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate credentials",
		})
	}

	baseCommission := req.BaseCommission
	if baseCommission <= 0 {
		baseCommission = utils.DefaultBaseCommission
	}

	now := time.Now()
	agent := models.Agent{
		ID:             primitive.NewObjectID(),
		FullName:       req.FullName,
		Email:          strings.ToLower(req.Email),
		Phone:          req.Phone,
		Password:       string(hashedPassword),
		City:           req.City,
		UpiID:          req.UpiID,
		BankAccount:    req.BankAccount,
		BankIfsc:       req.BankIfsc,
		BankHolderName: req.BankHolderName,
		BaseCommission: baseCommission,
		ParentAgentID:  parentID,
		Status:         models.AgentActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The referral code is unique by index; retry on the rare collision.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate referral code",
			})
		}
		agent.ReferralCode = code
		if _, err = ac.agents().InsertOne(ctx, agent); err == nil {
			break
		}
		if !mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create agent",
			})
		}
		if attempt == 4 {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to allocate a referral code",
			})
		}
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     agent.Email,
		Password:  string(hashedPassword),
		FullName:  agent.FullName,
		UserType:  "agent",
		AgentID:   &agent.ID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := usersColl.InsertOne(ctx, user); err != nil {
		// Roll the agent back so a half-provisioned account never lingers.
		ac.agents().DeleteOne(ctx, bson.M{"_id": agent.ID})
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create agent login",
		})
	}

	if err := utils.SendAgentCredentialsEmail(agent.FullName, agent.Email, tempPassword, agent.ReferralCode); err != nil {
		log.Printf("Failed to email credentials to %s: %v", agent.Email, err)
	}

	log.Printf("Agent %s provisioned with referral code %s", agent.ID.Hex(), agent.ReferralCode)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Agent created successfully",
		Data: models.CreateAgentResponse{
			ID:           agent.ID,
			ReferralCode: agent.ReferralCode,
			Credentials: models.AgentCredentials{
				Username: agent.Email,
				Password: tempPassword,
			},
		},
	})
}

// GetAgents handles GET /api/admin/agents with search and pagination.
func (ac *AgentController) GetAgents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}
	if search := c.QueryParam("search"); search != "" {
		filter["$or"] = []bson.M{
			{"fullName": bson.M{"$regex": search, "$options": "i"}},
			{"email": bson.M{"$regex": search, "$options": "i"}},
			{"referralCode": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	page, limit := pagination(c)

	total, err := ac.agents().CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count agents",
		})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := ac.agents().Find(ctx, filter, opts)
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

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agents retrieved successfully",
		Data: map[string]interface{}{
			"agents": agents,
			"total":  total,
			"page":   page,
			"limit":  limit,
		},
	})
}

// GetAgent handles GET /api/admin/agents/:id: the detail view with the
// agent's MSP overrides and sub-agents.
func (ac *AgentController) GetAgent(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var agent models.Agent
	if err := ac.agents().FindOne(ctx, bson.M{"_id": id}).Decode(&agent); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agent not found",
		})
	}

	mspCursor, err := config.GetCollection(ac.DB, "agentMsps").Find(ctx, bson.M{"agentId": id})
	if err == nil {
		cursor := mspCursor
		var msps []models.AgentMsp
		if cursor.All(ctx, &msps) == nil {
			agent.Msps = msps
		}
	}

	agent.SubAgents, err = ac.subAgentSummaries(ctx, id)
	if err != nil {
		log.Printf("Failed to load sub-agents for %s: %v", id.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agent retrieved successfully",
		Data:    agent,
	})
}

// UpdateAgent handles PUT /api/admin/agents/:id. Base commission edits apply
// to future approvals only.
func (ac *AgentController) UpdateAgent(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}

	req := new(models.UpdateAgentRequest)
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

	set := bson.M{"updatedAt": time.Now()}
	if req.FullName != nil {
		set["fullName"] = *req.FullName
	}
	if req.Phone != nil {
		set["phone"] = *req.Phone
	}
	if req.City != nil {
		set["city"] = *req.City
	}
	if req.UpiID != nil {
		set["upiId"] = *req.UpiID
	}
	if req.BankAccount != nil {
		set["bankAccount"] = *req.BankAccount
	}
	if req.BankIfsc != nil {
		set["bankIfsc"] = *req.BankIfsc
	}
	if req.BankHolderName != nil {
		set["bankHolderName"] = *req.BankHolderName
	}
	if req.BaseCommission != nil {
		set["baseCommission"] = *req.BaseCommission
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var agent models.Agent
	err = ac.agents().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&agent)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agent not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update agent",
		})
	}

	// Deactivating the agent also disables their login.
	if req.Status != nil {
		isActive := *req.Status == models.AgentActive
		config.GetCollection(ac.DB, "users").UpdateOne(ctx,
			bson.M{"agentId": id},
			bson.M{"$set": bson.M{"isActive": isActive, "updatedAt": time.Now()}})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agent updated successfully",
		Data:    agent,
	})
}

// GetMyStats handles GET /api/agent/stats: the dashboard headline numbers of
// the authenticated agent.
func (ac *AgentController) GetMyStats(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := ac.ledger.Snapshot(ctx, agentID)
	if err != nil {
		return orderErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Stats retrieved successfully",
		Data:    stats,
	})
}

// GetMySubAgents handles GET /api/agent/sub-agents.
func (ac *AgentController) GetMySubAgents(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	summaries, err := ac.subAgentSummaries(ctx, agentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch sub-agents",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Sub-agents retrieved successfully",
		Data:    summaries,
	})
}

func (ac *AgentController) subAgentSummaries(ctx context.Context, parentID primitive.ObjectID) ([]models.SubAgentSummary, error) {
	cursor, err := ac.agents().Find(ctx, bson.M{"parentAgentId": parentID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.Agent
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}

	// Sum the override earnings per sub-agent in one aggregation.
	overridesBySub := map[primitive.ObjectID]float64{}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"parentAgentId": parentID}}},
		{{Key: "$group", Value: bson.M{"_id": "$subAgentId", "total": bson.M{"$sum": "$amount"}}}},
	}
	aggCursor, err := config.GetCollection(ac.DB, "overrideEarnings").Aggregate(ctx, pipeline)
	if err == nil {
		var rows []struct {
			ID    primitive.ObjectID `bson:"_id"`
			Total float64            `bson:"total"`
		}
		if aggCursor.All(ctx, &rows) == nil {
			for _, row := range rows {
				overridesBySub[row.ID] = row.Total
			}
		}
	}

	summaries := make([]models.SubAgentSummary, 0, len(subs))
	for _, sub := range subs {
		summaries = append(summaries, models.SubAgentSummary{
			ID:               sub.ID,
			FullName:         sub.FullName,
			TotalSales:       sub.TotalSales,
			OverrideEarnings: overridesBySub[sub.ID],
			JoinedAt:         sub.CreatedAt,
			Status:           sub.Status,
		})
	}
	return summaries, nil
}

// GetMyCommissionHistory handles GET /api/agent/commissions: sale commissions
// and override earnings interleaved, newest first.
func (ac *AgentController) GetMyCommissionHistory(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	entries := []models.CommissionEntry{}

	// Sale commissions come from approved orders with a commission snapshot.
	orderCursor, err := config.GetCollection(ac.DB, "orders").Find(ctx,
		bson.M{"agentId": agentID, "commissionAmount": bson.M{"$gt": 0}},
		options.Find().SetSort(bson.D{{Key: "approvedAt", Value: -1}}).SetLimit(maxPageSize))
	if err == nil {
		var orders []models.Order
		if orderCursor.All(ctx, &orders) == nil {
			for _, order := range orders {
				earnedAt := order.CreatedAt
				if order.ApprovedAt != nil {
					earnedAt = *order.ApprovedAt
				}
				entries = append(entries, models.CommissionEntry{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					Amount:      order.CommissionAmount,
					Kind:        "sale",
					EarnedAt:    earnedAt,
				})
			}
		}
	}

	overrideCursor, err := config.GetCollection(ac.DB, "overrideEarnings").Find(ctx,
		bson.M{"parentAgentId": agentID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(maxPageSize))
	if err == nil {
		var earnings []models.OverrideEarning
		if overrideCursor.All(ctx, &earnings) == nil {
			for _, earning := range earnings {
				entries = append(entries, models.CommissionEntry{
					OrderID:  earning.OrderID,
					Amount:   earning.Amount,
					Kind:     "override",
					EarnedAt: earning.CreatedAt,
				})
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission history retrieved successfully",
		Data:    entries,
	})
}

// GetMyReferralQRCode handles GET /api/agent/referral-qr.
func (ac *AgentController) GetMyReferralQRCode(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var agent models.Agent
	if err := ac.agents().FindOne(ctx, bson.M{"_id": agentID}).Decode(&agent); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Agent not found",
		})
	}

	qrImage, err := generateReferralQRCode(agent.ReferralCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral QR code generated successfully",
		Data: map[string]string{
			"referralCode": agent.ReferralCode,
			"qrCode":       qrImage,
		},
	})
}

// generateReferralQRCode creates a QR code image for a referral code
func generateReferralQRCode(referralCode string) (string, error) {
	content := fmt.Sprintf("https://taponce.in/order?ref=%s", referralCode)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	base64QR := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/png;base64," + base64QR, nil
}
