package main

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/config"
	"bitbucket.org/mmdatafocus/payables_backend/engine"
	"bitbucket.org/mmdatafocus/payables_backend/models"
	"bitbucket.org/mmdatafocus/payables_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type api struct {
	engine *engine.Engine
	logger *logrus.Logger
}

func newAPI(cfg engine.Config, logger *logrus.Logger) (*api, error) {
	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return &api{engine: eng, logger: logger}, nil
}

// reconcileRequest carries one already-extracted invoice plus its candidate
// snapshot. purchase_orders and vendor may be omitted when a database is
// configured; the vendor-scoped snapshot is loaded there instead.
type reconcileRequest struct {
	Invoice        map[string]any   `json:"invoice" binding:"required"`
	PurchaseOrders []map[string]any `json:"purchase_orders"`
	Vendor         map[string]any   `json:"vendor"`
	AsOfDate       string           `json:"as_of_date"`
}

func (a *api) reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asOf := time.Time{}
	if req.AsOfDate != "" {
		parsed, err := engine.ParseDate(req.AsOfDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of_date: " + err.Error()})
			return
		}
		asOf = parsed
	}

	inv, err := engine.NormalizeInvoice(req.Invoice)
	if err != nil {
		a.respondNormalizeError(c, err)
		return
	}

	candidates, vendor, err := a.resolveSnapshot(c, req, inv)
	if err != nil {
		a.respondNormalizeError(c, err)
		return
	}

	result := a.engine.Reconcile(engine.Input{
		Invoice:    inv,
		Candidates: candidates,
		Vendor:     vendor,
		AsOfDate:   asOf,
	})

	runId := uuid.NewString()
	if db := config.GetDB(); db != nil {
		record := models.NewRecommendationRecord(runId, inv, result)
		if err := db.Create(record).Error; err != nil {
			config.LogError(a.logger, "handlers.go", "reconcile", "persisting recommendation", runId, err)
			// Persistence trouble never invalidates a produced recommendation.
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":         runId,
		"invoice_number": inv.InvoiceNumber,
		"result":         result,
	})
}

// resolveSnapshot prefers the request's own candidate snapshot; otherwise it
// loads a vendor-scoped snapshot from the database.
func (a *api) resolveSnapshot(c *gin.Context, req reconcileRequest, inv *models.Invoice) ([]*models.PurchaseOrder, *models.Vendor, error) {
	var candidates []*models.PurchaseOrder
	var vendor *models.Vendor

	if req.PurchaseOrders != nil {
		for _, raw := range req.PurchaseOrders {
			po, err := engine.NormalizePurchaseOrder(raw)
			if err != nil {
				return nil, nil, err
			}
			candidates = append(candidates, po)
		}
	} else if db := config.GetDB(); db != nil {
		query := db.Preload("LineItems")
		if inv.VendorId != "" {
			query = query.Where("vendor_id = ?", inv.VendorId)
		} else {
			query = query.Where("vendor_name = ?", inv.VendorName)
		}
		if err := query.Find(&candidates).Error; err != nil {
			config.LogError(a.logger, "handlers.go", "resolveSnapshot", "loading purchase orders", inv.InvoiceNumber, err)
		}
	}

	if req.Vendor != nil {
		v, err := engine.NormalizeVendor(req.Vendor)
		if err != nil {
			return nil, nil, err
		}
		vendor = v
	} else if db := config.GetDB(); db != nil && inv.VendorId != "" {
		var v models.Vendor
		if err := db.Where("vendor_id = ?", inv.VendorId).First(&v).Error; err == nil {
			vendor = &v
		}
	}
	return candidates, vendor, nil
}

func (a *api) respondNormalizeError(c *gin.Context, err error) {
	if engine.IsMalformedRecord(err) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	config.LogError(a.logger, "handlers.go", "reconcile", "normalizing records", nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (a *api) listRecommendations(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence not configured"})
		return
	}
	var records []models.RecommendationRecord
	query := db.Order("id desc").Limit(50)
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if err := query.Find(&records).Error; err != nil {
		config.LogError(a.logger, "handlers.go", "listRecommendations", "querying recommendations", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": records})
}

func (a *api) getRecommendation(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence not configured"})
		return
	}
	var record models.RecommendationRecord
	err := db.Where("run_id = ?", c.Param("runId")).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": utils.ErrorRecordNotFound.Error()})
		return
	}
	if err != nil {
		config.LogError(a.logger, "handlers.go", "getRecommendation", "querying recommendation", c.Param("runId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (a *api) health(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if config.GetDB() == nil {
		status["persistence"] = "disabled"
	}
	c.JSON(http.StatusOK, status)
}
