// Package insumo exposes the read and reconciling-write endpoints.
package insumo

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/cuevaio/cpp-insumos/pkg/models"
	"github.com/cuevaio/cpp-insumos/pkg/validation"
)

// Service is the application surface behind the endpoints.
type Service interface {
	List(ctx context.Context, key models.InsumoKey) ([]models.InsumoView, error)
	Reconcile(ctx context.Context, key models.InsumoKey, incoming []models.Insumo) (models.WriteInsumosResult, error)
}

// Handler handles insumo API requests
type Handler struct {
	service Service
	logger  ectologger.Logger
}

// NewHandler creates a new insumo handler
func NewHandler(service Service, logger ectologger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the insumo routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetInsumos)
	g.POST("", h.SaveInsumos)
}

// GetInsumos handles GET /insumos: validates the (date, unit_id, market)
// triple and returns the matching records sorted ascending by hour, with the
// key fields hoisted to the envelope.
func (h *Handler) GetInsumos(c echo.Context) error {
	ctx := c.Request().Context()

	key, err := validation.ValidateReadQuery(validation.ReadQuery{
		Date:   c.QueryParam("date"),
		UnitID: c.QueryParam("unit_id"),
		Market: c.QueryParam("market"),
	})
	if err != nil {
		return err
	}

	views, err := h.service.List(ctx, key)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.ReadInsumosResponse{
		Data: models.ReadInsumosData{
			Date:    key.Date,
			Market:  key.Market,
			UnitID:  key.UnitID,
			Insumos: views,
		},
	})
}

// SaveInsumos handles POST /insumos: validates and coerces the whole batch,
// reconciles it against storage and reports which hours were inserted and
// which were updated.
func (h *Handler) SaveInsumos(c echo.Context) error {
	ctx := c.Request().Context()

	var req validation.WriteRequest
	if err := c.Bind(&req); err != nil {
		return validation.NewErrors("request", "invalid request body")
	}

	key, records, err := validation.ValidateWriteRequest(req)
	if err != nil {
		return err
	}

	result, err := h.service.Reconcile(ctx, key, records)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.WriteInsumosResponse{Data: result})
}
