// Package insumo holds the read reshaping and the insert/update
// reconciliation that backs the write endpoint.
package insumo

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/cuevaio/cpp-insumos/pkg/metrics"
	"github.com/cuevaio/cpp-insumos/pkg/models"
	"github.com/cuevaio/cpp-insumos/pkg/tracing"
)

// Store is the persistence surface the service needs.
type Store interface {
	ListByKey(ctx context.Context, key models.InsumoKey) ([]models.Insumo, error)
	ListByKeyAndHours(ctx context.Context, key models.InsumoKey, hours []string) ([]models.Insumo, error)
	InsertBatch(ctx context.Context, key models.InsumoKey, records []models.Insumo) error
	Update(ctx context.Context, key models.InsumoKey, record models.Insumo) error
}

type Service struct {
	store  Store
	logger ectologger.Logger
}

func NewService(store Store, logger ectologger.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// List returns the stored records for a key in their numeric read shape,
// sorted ascending by hour.
func (s *Service) List(ctx context.Context, key models.InsumoKey) ([]models.InsumoView, error) {
	ctx, span := tracing.StartSpan(ctx, "insumo.Service.List")
	defer span.End()

	records, err := s.store.ListByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	views := make([]models.InsumoView, 0, len(records))
	for _, rec := range records {
		views = append(views, rec.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Hour < views[j].Hour })

	metrics.ReadsTotal.WithLabelValues(string(key.Market)).Inc()
	return views, nil
}

// Reconcile upserts the incoming records against storage. Per record:
// no stored row with the same hour means insert; a stored row that differs
// on any mutable field means update; an identical row is left untouched.
// Inserts go out as one batch, updates are dispatched concurrently and
// joined, and any update failure fails the whole call.
func (s *Service) Reconcile(ctx context.Context, key models.InsumoKey, incoming []models.Insumo) (models.WriteInsumosResult, error) {
	ctx, span := tracing.StartSpan(ctx, "insumo.Service.Reconcile")
	defer span.End()

	start := time.Now()
	result := models.WriteInsumosResult{Inserted: []int{}, Updated: []int{}}

	hours := lo.Map(incoming, func(rec models.Insumo, _ int) string { return rec.Hour })
	existing, err := s.store.ListByKeyAndHours(ctx, key, hours)
	if err != nil {
		return result, err
	}

	var toInsert, toUpdate []models.Insumo
	for _, rec := range incoming {
		stored, ok := findByHour(existing, rec.Hour)
		if !ok {
			toInsert = append(toInsert, rec)
			result.Inserted = append(result.Inserted, models.HourFromToken(rec.Hour))
			continue
		}

		field, changed := firstChangedField(rec, stored)
		if !changed {
			continue
		}

		s.logger.WithContext(ctx).WithFields(map[string]any{
			"hour":  rec.Hour,
			"field": field,
		}).Debug("Insumo changed")

		rec.UpdatedAt = time.Now().UTC()
		toUpdate = append(toUpdate, rec)
		result.Updated = append(result.Updated, models.HourFromToken(rec.Hour))
	}

	if len(toInsert) > 0 {
		if err := s.store.InsertBatch(ctx, key, toInsert); err != nil {
			return result, err
		}
	}

	if len(toUpdate) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, rec := range toUpdate {
			g.Go(func() error {
				return s.store.Update(gctx, key, rec)
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}
	}

	market := string(key.Market)
	metrics.WritesTotal.WithLabelValues(market).Inc()
	metrics.RowsInsertedTotal.WithLabelValues(market).Add(float64(len(toInsert)))
	metrics.RowsUpdatedTotal.WithLabelValues(market).Add(float64(len(toUpdate)))
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())

	return result, nil
}

// findByHour does a linear scan; hours are unique within a fetched set and
// the set is at most 25 rows.
func findByHour(records []models.Insumo, hour string) (models.Insumo, bool) {
	for _, rec := range records {
		if rec.Hour == hour {
			return rec, true
		}
	}
	return models.Insumo{}, false
}

// firstChangedField compares the mutable fields in payload order and stops
// at the first difference. Key fields and timestamps are never compared.
func firstChangedField(incoming, stored models.Insumo) (string, bool) {
	if incoming.Min != stored.Min {
		return "min", true
	}
	if incoming.Max != stored.Max {
		return "max", true
	}
	if !equalNullable(incoming.ShareFT1, stored.ShareFT1) {
		return "share_ft1", true
	}
	if !equalNullable(incoming.ShareFT2, stored.ShareFT2) {
		return "share_ft2", true
	}
	if incoming.Note != stored.Note {
		return "note", true
	}
	if incoming.AGC != stored.AGC {
		return "agc", true
	}
	if incoming.PriceFT1 != stored.PriceFT1 {
		return "price_ft1", true
	}
	if !equalNullable(incoming.PriceFT2, stored.PriceFT2) {
		return "price_ft2", true
	}
	return "", false
}

func equalNullable(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
