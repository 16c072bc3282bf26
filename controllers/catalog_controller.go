// controllers/catalog_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taponce/taponce_backend/config"
	"github.com/taponce/taponce_backend/middleware"
	"github.com/taponce/taponce_backend/models"
)

const (
	publicCatalogCacheKey = "catalog:public"
	publicCatalogTTL      = 24 * time.Hour
	agentCatalogTTL       = 1 * time.Hour
)

// CatalogController manages the card design catalog and per-agent MSP
// overrides.
type CatalogController struct {
	DB    *mongo.Client
	redis *redis.Client
}

// NewCatalogController creates a new catalog controller
func NewCatalogController(db *mongo.Client, redisClient *redis.Client) *CatalogController {
	return &CatalogController{DB: db, redis: redisClient}
}

func (cc *CatalogController) designs() *mongo.Collection {
	return config.GetCollection(cc.DB, "cardDesigns")
}

func (cc *CatalogController) agentMsps() *mongo.Collection {
	return config.GetCollection(cc.DB, "agentMsps")
}

// invalidateCatalogCache drops every cached catalog view after a write.
func (cc *CatalogController) invalidateCatalogCache(ctx context.Context) {
	if cc.redis == nil {
		return
	}
	if err := cc.redis.Del(ctx, publicCatalogCacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate public catalog cache: %v", err)
	}
	iter := cc.redis.Scan(ctx, 0, "catalog:agent:*", 100).Iterator()
	for iter.Next(ctx) {
		cc.redis.Del(ctx, iter.Val())
	}
}

// GetPublicCardDesigns handles GET /api/card-designs: active designs only,
// without MSP information, cached for a day.
func (cc *CatalogController) GetPublicCardDesigns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if cc.redis != nil {
		if cached, err := cc.redis.Get(ctx, publicCatalogCacheKey).Result(); err == nil {
			var designs []models.CardDesign
			if json.Unmarshal([]byte(cached), &designs) == nil {
				return c.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Card designs retrieved successfully",
					Data:    designs,
				})
			}
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "totalSales", Value: -1}}).
		SetProjection(bson.M{"baseMsp": 0})
	cursor, err := cc.designs().Find(ctx, bson.M{"status": models.CardDesignActive}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch card designs",
		})
	}
	defer cursor.Close(ctx)

	designs := []models.CardDesign{}
	if err := cursor.All(ctx, &designs); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode card designs",
		})
	}

	if cc.redis != nil {
		if payload, err := json.Marshal(designs); err == nil {
			cc.redis.Set(ctx, publicCatalogCacheKey, payload, publicCatalogTTL)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Card designs retrieved successfully",
		Data:    designs,
	})
}

// GetAgentCatalog handles GET /api/agent/card-designs: active designs with
// the MSP that applies to the authenticated agent after overrides.
func (cc *CatalogController) GetAgentCatalog(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(middleware.ExtractAgentID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Agent identity missing from token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	cacheKey := "catalog:agent:" + agentID.Hex()
	if cc.redis != nil {
		if cached, err := cc.redis.Get(ctx, cacheKey).Result(); err == nil {
			var catalog []models.AgentCardDesign
			if json.Unmarshal([]byte(cached), &catalog) == nil {
				return c.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Catalog retrieved successfully",
					Data:    catalog,
				})
			}
		}
	}

	cursor, err := cc.designs().Find(ctx, bson.M{"status": models.CardDesignActive},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch card designs",
		})
	}
	defer cursor.Close(ctx)

	designs := []models.CardDesign{}
	if err := cursor.All(ctx, &designs); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode card designs",
		})
	}

	// Load the agent's overrides in one query and merge.
	overrides := map[primitive.ObjectID]float64{}
	mspCursor, err := cc.agentMsps().Find(ctx, bson.M{"agentId": agentID})
	if err == nil {
		var msps []models.AgentMsp
		if mspCursor.All(ctx, &msps) == nil {
			for _, m := range msps {
				overrides[m.CardDesignID] = m.MspAmount
			}
		}
	}

	catalog := make([]models.AgentCardDesign, 0, len(designs))
	for _, design := range designs {
		entry := models.AgentCardDesign{CardDesign: design, YourMsp: design.BaseMsp}
		if amount, ok := overrides[design.ID]; ok {
			entry.YourMsp = amount
		}
		catalog = append(catalog, entry)
	}

	if cc.redis != nil {
		if payload, err := json.Marshal(catalog); err == nil {
			cc.redis.Set(ctx, cacheKey, payload, agentCatalogTTL)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Catalog retrieved successfully",
		Data:    catalog,
	})
}

// GetCardDesigns handles GET /api/admin/card-designs: all designs, any
// status, with MSPs.
func (cc *CatalogController) GetCardDesigns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}

	cursor, err := cc.designs().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch card designs",
		})
	}
	defer cursor.Close(ctx)

	designs := []models.CardDesign{}
	if err := cursor.All(ctx, &designs); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode card designs",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Card designs retrieved successfully",
		Data:    designs,
	})
}

// CreateCardDesign handles POST /api/admin/card-designs.
func (cc *CatalogController) CreateCardDesign(c echo.Context) error {
	req := new(models.CreateCardDesignRequest)
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

	status := req.Status
	if status == "" {
		status = models.CardDesignActive
	}

	now := time.Now()
	design := models.CardDesign{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Description: req.Description,
		BaseMsp:     req.BaseMsp,
		PreviewURL:  req.PreviewURL,
		TemplateURL: req.TemplateURL,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := cc.designs().InsertOne(ctx, design); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create card design",
		})
	}

	cc.invalidateCatalogCache(ctx)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Card design created successfully",
		Data:    design,
	})
}

// UpdateCardDesign handles PUT /api/admin/card-designs/:id. MSP edits apply
// to future orders only; existing orders keep the MSP snapshotted at
// creation.
func (cc *CatalogController) UpdateCardDesign(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid card design ID",
		})
	}

	req := new(models.UpdateCardDesignRequest)
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
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.BaseMsp != nil {
		set["baseMsp"] = *req.BaseMsp
	}
	if req.PreviewURL != nil {
		set["previewUrl"] = *req.PreviewURL
	}
	if req.TemplateURL != nil {
		set["templateUrl"] = *req.TemplateURL
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var design models.CardDesign
	err = cc.designs().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&design)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Card design not found",
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update card design",
		})
	}

	cc.invalidateCatalogCache(ctx)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Card design updated successfully",
		Data:    design,
	})
}

// SetAgentMsp handles PUT /api/admin/agents/:id/msp/:designId: upserts the
// agent's MSP override for one design. The override applies to future orders
// only.
func (cc *CatalogController) SetAgentMsp(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}
	designID, err := primitive.ObjectIDFromHex(c.Param("designId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid card design ID",
		})
	}

	req := new(models.SetAgentMspRequest)
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

	var design models.CardDesign
	if err := cc.designs().FindOne(ctx, bson.M{"_id": designID}).Decode(&design); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Card design not found",
		})
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"mspAmount":      req.MspAmount,
			"cardDesignName": design.Name,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{
			"agentId":      agentID,
			"cardDesignId": designID,
			"createdAt":    now,
		},
	}
	_, err = cc.agentMsps().UpdateOne(ctx,
		bson.M{"agentId": agentID, "cardDesignId": designID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to set agent MSP",
		})
	}

	cc.invalidateCatalogCache(ctx)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agent MSP set successfully",
	})
}

// ClearAgentMsp handles DELETE /api/admin/agents/:id/msp/:designId: removes
// the override so the design's base MSP applies again.
func (cc *CatalogController) ClearAgentMsp(c echo.Context) error {
	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agent ID",
		})
	}
	designID, err := primitive.ObjectIDFromHex(c.Param("designId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid card design ID",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	result, err := cc.agentMsps().DeleteOne(ctx, bson.M{"agentId": agentID, "cardDesignId": designID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to clear agent MSP",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No MSP override found for this agent and design",
		})
	}

	cc.invalidateCatalogCache(ctx)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agent MSP cleared successfully",
	})
}
