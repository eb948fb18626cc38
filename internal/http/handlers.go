package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/coojiin/credit-card-helper/internal/catalog"
	"github.com/coojiin/credit-card-helper/internal/core"
	"github.com/coojiin/credit-card-helper/internal/services"
	"github.com/coojiin/credit-card-helper/internal/storage"
	val "github.com/coojiin/credit-card-helper/internal/validator"
)

// Handler wires the HTTP surface to the application services.
type Handler struct {
	catalog *catalog.Catalog
	cards   *services.CardService
	txs     *services.TransactionService
	recs    *services.RecommendationService
	backup  *services.BackupService
}

func NewHandler(cat *catalog.Catalog, cards *services.CardService, txs *services.TransactionService, recs *services.RecommendationService, backup *services.BackupService) *Handler {
	return &Handler{
		catalog: cat,
		cards:   cards,
		txs:     txs,
		recs:    recs,
		backup:  backup,
	}
}

// === Catalog ===

func (h *Handler) ListCardDefinitions(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Definitions())
}

func (h *Handler) GetCardDefinition(c *gin.Context) {
	def, ok := h.catalog.Definition(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Card definition not found"})
		return
	}
	c.JSON(http.StatusOK, def)
}

// === User cards ===

type AddUserCardRequest struct {
	CardDefID       string `json:"cardDefId" validate:"required,notblank"`
	BillingCycleDay int    `json:"billingCycleDay" validate:"required,gte=1,lte=31"`
	Enabled         *bool  `json:"isEnabled"`
}

func (h *Handler) AddUserCard(c *gin.Context) {
	var req AddUserCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	card, err := h.cards.Add(c.Request.Context(), services.AddCardInput{
		CardDefID:       req.CardDefID,
		BillingCycleDay: req.BillingCycleDay,
		Enabled:         enabled,
	})
	if err != nil {
		if errors.Is(err, core.ErrDefinitionNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown card definition"})
			return
		}
		slog.Error("Failed to add user card", "error", err, "card_def_id", req.CardDefID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add card"})
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *Handler) ListUserCards(c *gin.Context) {
	cards, err := h.cards.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list user cards", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if cards == nil {
		cards = []core.UserCard{}
	}
	c.JSON(http.StatusOK, cards)
}

func (h *Handler) GetUserCard(c *gin.Context) {
	card, err := h.cards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "get user card")
		return
	}
	c.JSON(http.StatusOK, card)
}

type UpdateUserCardRequest struct {
	BillingCycleDay *int  `json:"billingCycleDay" validate:"omitempty,gte=1,lte=31"`
	Enabled         *bool `json:"isEnabled"`
}

func (h *Handler) UpdateUserCard(c *gin.Context) {
	var req UpdateUserCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card, err := h.cards.Update(c.Request.Context(), c.Param("id"), services.UpdateCardInput{
		BillingCycleDay: req.BillingCycleDay,
		Enabled:         req.Enabled,
	})
	if err != nil {
		respondStoreError(c, err, "update user card")
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *Handler) DeleteUserCard(c *gin.Context) {
	if err := h.cards.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err, "delete user card")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetUserCardCaps(c *gin.Context) {
	statuses, err := h.recs.CardCaps(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		if errors.Is(err, core.ErrDefinitionNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "Card definition missing from catalog"})
			return
		}
		respondStoreError(c, err, "get card caps")
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// === Transactions ===

type RecordTransactionRequest struct {
	UserCardID string `json:"userCardId" validate:"required,notblank"`
	Timestamp  int64  `json:"timestamp" validate:"omitempty,gte=1"`
	Amount     *int64 `json:"amount" validate:"required"`
	Category   string `json:"scenario" validate:"required,notblank"`
	Note       string `json:"note"`
}

func (h *Handler) RecordTransaction(c *gin.Context) {
	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	tx, err := h.txs.Record(c.Request.Context(), services.RecordTransactionInput{
		UserCardID: req.UserCardID,
		Timestamp:  req.Timestamp,
		Amount:     core.Money{Cents: *req.Amount},
		Category:   req.Category,
		Note:       req.Note,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User card not found"})
			return
		}
		if errors.Is(err, core.ErrDefinitionNotFound) {
			c.JSON(http.StatusConflict, gin.H{"error": "Card definition missing from catalog"})
			return
		}
		slog.Error("Failed to record transaction", "error", err, "user_card_id", req.UserCardID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record transaction"})
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	cardID := c.Query("cardId")
	if cardID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cardId query param required"})
		return
	}
	txs, err := h.txs.List(c.Request.Context(), cardID)
	if err != nil {
		slog.Error("Failed to list transactions", "error", err, "card_id", cardID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.txs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "get transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

type UpdateTransactionRequest struct {
	Amount       *int64  `json:"amount" validate:"omitempty,gte=1"`
	RewardAmount *int64  `json:"earnedReward" validate:"omitempty,gte=0"`
	Note         *string `json:"note"`
}

func (h *Handler) UpdateTransaction(c *gin.Context) {
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := services.UpdateTransactionInput{Note: req.Note}
	if req.Amount != nil {
		in.Amount = &core.Money{Cents: *req.Amount}
	}
	if req.RewardAmount != nil {
		in.RewardAmount = &core.Money{Cents: *req.RewardAmount}
	}

	tx, err := h.txs.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondStoreError(c, err, "update transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	if err := h.txs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err, "delete transaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// === Recommendations ===

type RecommendRequest struct {
	Category string `json:"scenario" validate:"required,notblank"`
	Amount   *int64 `json:"amount" validate:"required"`
}

func (h *Handler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ranked, err := h.recs.Rank(c.Request.Context(), req.Category, core.Money{Cents: *req.Amount}, time.Now())
	if err != nil {
		slog.Error("Recommendation failed", "error", err, "scenario", req.Category)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, ranked)
}

// === Backup ===

func (h *Handler) ExportBackup(c *gin.Context) {
	doc, err := h.backup.Export(c.Request.Context())
	if err != nil {
		slog.Error("Backup export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export backup"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) ImportBackup(c *gin.Context) {
	var doc services.BackupDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	stats, err := h.backup.Import(c.Request.Context(), &doc)
	if err != nil {
		slog.Error("Backup import failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// === Helpers ===

func respondStoreError(c *gin.Context, err error, op string) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if errors.Is(err, core.ErrInvalidBillingDay) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slog.Error("Request failed", "op", op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

func validateStruct(v any) error {
	if err := val.Validate.Struct(v); err != nil {
		var errs []string
		for _, e := range err.(validator.ValidationErrors) {
			errs = append(errs, fieldErrorToString(e))
		}
		return fmt.Errorf("invalid input: %s", strings.Join(errs, "; "))
	}
	return nil
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
