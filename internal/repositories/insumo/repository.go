// Package insumo persists hourly insumo records.
package insumo

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"

	"github.com/cuevaio/cpp-insumos/pkg/database"
	"github.com/cuevaio/cpp-insumos/pkg/models"
	"github.com/cuevaio/cpp-insumos/pkg/tracing"
)

const table = "insumo"

// recordColumns are the per-hour columns selected for reads and
// reconciliation; the key columns come from the request, not the row.
var recordColumns = []string{"hour", "min", "max", "share_ft1", "share_ft2", "note", "agc", "price_ft1", "price_ft2", "created_at", "updated_at"}

// Repository handles insumo persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new insumo repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByKey retrieves every record stored under (date, unit_id, market).
func (r *Repository) ListByKey(ctx context.Context, key models.InsumoKey) ([]models.Insumo, error) {
	ctx, span := tracing.StartSpan(ctx, "insumo.Repository.ListByKey")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From(table)
	sb.Where(
		sb.Equal("date", key.Date),
		sb.Equal("unit_id", key.UnitID.String()),
		sb.Equal("market", string(key.Market)),
	)

	query, args := sb.Build()
	var records []models.Insumo
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list insumos")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list insumos")
	}

	return records, nil
}

// ListByKeyAndHours retrieves the records under (date, unit_id, market)
// whose hour token is in the given set.
func (r *Repository) ListByKeyAndHours(ctx context.Context, key models.InsumoKey, hours []string) ([]models.Insumo, error) {
	ctx, span := tracing.StartSpan(ctx, "insumo.Repository.ListByKeyAndHours")
	defer span.End()

	if len(hours) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(recordColumns...)
	sb.From(table)
	sb.Where(
		sb.Equal("date", key.Date),
		sb.Equal("unit_id", key.UnitID.String()),
		sb.Equal("market", string(key.Market)),
		sb.In("hour", lo.ToAnySlice(hours)...),
	)

	query, args := sb.Build()
	var records []models.Insumo
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list insumos by hours")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list insumos")
	}

	return records, nil
}

// InsertBatch inserts every record in one statement. Timestamps come from
// the column defaults.
func (r *Repository) InsertBatch(ctx context.Context, key models.InsumoKey, records []models.Insumo) error {
	ctx, span := tracing.StartSpan(ctx, "insumo.Repository.InsertBatch")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(table)
	sb.Cols("date", "unit_id", "market", "hour", "min", "max", "share_ft1", "share_ft2", "note", "agc", "price_ft1", "price_ft2")
	for _, rec := range records {
		sb.Values(key.Date, key.UnitID.String(), string(key.Market), rec.Hour, rec.Min, rec.Max, rec.ShareFT1, rec.ShareFT2, string(rec.Note), rec.AGC, rec.PriceFT1, rec.PriceFT2)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"unit_id": key.UnitID.String(),
			"date":    key.Date,
			"rows":    len(records),
		}).Error("Failed to insert insumos")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert insumos")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"rows": len(records)}).Info("Inserted insumos")
	return nil
}

// Update overwrites the mutable fields of one existing row. The match
// predicate is (date, unit_id, hour) without market, on the assumption that
// a unit does not carry rows for both markets on the same date and hour;
// market is likewise left out of the SET list.
func (r *Repository) Update(ctx context.Context, key models.InsumoKey, rec models.Insumo) error {
	ctx, span := tracing.StartSpan(ctx, "insumo.Repository.Update")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("min", rec.Min),
		ub.Assign("max", rec.Max),
		ub.Assign("share_ft1", rec.ShareFT1),
		ub.Assign("share_ft2", rec.ShareFT2),
		ub.Assign("note", string(rec.Note)),
		ub.Assign("agc", rec.AGC),
		ub.Assign("price_ft1", rec.PriceFT1),
		ub.Assign("price_ft2", rec.PriceFT2),
		ub.Assign("updated_at", rec.UpdatedAt),
	)
	ub.Where(
		ub.Equal("date", key.Date),
		ub.Equal("unit_id", key.UnitID.String()),
		ub.Equal("hour", rec.Hour),
	)

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"unit_id": key.UnitID.String(),
			"date":    key.Date,
			"hour":    rec.Hour,
		}).Error("Failed to update insumo")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update insumo")
	}

	return nil
}
