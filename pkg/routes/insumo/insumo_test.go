package insumo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuevaio/cpp-insumos/pkg/middleware"
	"github.com/cuevaio/cpp-insumos/pkg/models"
)

type fakeService struct {
	list      func(ctx context.Context, key models.InsumoKey) ([]models.InsumoView, error)
	reconcile func(ctx context.Context, key models.InsumoKey, incoming []models.Insumo) (models.WriteInsumosResult, error)
}

func (f *fakeService) List(ctx context.Context, key models.InsumoKey) ([]models.InsumoView, error) {
	if f.list == nil {
		return []models.InsumoView{}, nil
	}
	return f.list(ctx, key)
}

func (f *fakeService) Reconcile(ctx context.Context, key models.InsumoKey, incoming []models.Insumo) (models.WriteInsumosResult, error) {
	if f.reconcile == nil {
		return models.WriteInsumosResult{Inserted: []int{}, Updated: []int{}}, nil
	}
	return f.reconcile(ctx, key, incoming)
}

func newTestServer(service Service) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	NewHandler(service, logger).RegisterRoutes(e.Group("/insumos"))
	return e
}

const (
	testDate   = "2024-06-15"
	testUnitID = "7a9bd2c1-53f0-4a35-9f63-2f4f6a3d9b11"
)

func TestGetInsumos(t *testing.T) {
	t.Run("empty result keeps the insumos array non-null", func(t *testing.T) {
		e := newTestServer(&fakeService{})

		req := httptest.NewRequest(http.MethodGet, "/insumos?date="+testDate+"&unit_id="+testUnitID+"&market=MDA", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"date":"2024-06-15","market":"MDA","unit_id":"7a9bd2c1-53f0-4a35-9f63-2f4f6a3d9b11","insumos":[]}}`, rec.Body.String())
	})

	t.Run("records pass through with the key hoisted", func(t *testing.T) {
		service := &fakeService{
			list: func(_ context.Context, key models.InsumoKey) ([]models.InsumoView, error) {
				assert.Equal(t, models.MarketMTR, key.Market)
				return []models.InsumoView{{
					Hour: 1, Min: 0, Max: 100, Note: models.NoteCAmb, PriceFT1: 56.5,
				}}, nil
			},
		}
		e := newTestServer(service)

		req := httptest.NewRequest(http.MethodGet, "/insumos?date="+testDate+"&unit_id="+testUnitID+"&market=MTR", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body models.ReadInsumosResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, models.MarketMTR, body.Data.Market)
		require.Len(t, body.Data.Insumos, 1)
		assert.Equal(t, 1, body.Data.Insumos[0].Hour)
	})

	t.Run("missing parameters are a 400 with the field map", func(t *testing.T) {
		e := newTestServer(&fakeService{})

		req := httptest.NewRequest(http.MethodGet, "/insumos", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Error map[string][]string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Error, "date")
		assert.Contains(t, body.Error, "unit_id")
		assert.Contains(t, body.Error, "market")
	})

	t.Run("service failure is an opaque 500", func(t *testing.T) {
		service := &fakeService{
			list: func(_ context.Context, _ models.InsumoKey) ([]models.InsumoView, error) {
				return nil, errors.New("pq: connection reset")
			},
		}
		e := newTestServer(service)

		req := httptest.NewRequest(http.MethodGet, "/insumos?date="+testDate+"&unit_id="+testUnitID+"&market=MDA", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Something went wrong, man"}`, rec.Body.String())
	})
}

func TestSaveInsumos(t *testing.T) {
	validBody := `{
		"date": "2024-06-15",
		"unit_id": "7a9bd2c1-53f0-4a35-9f63-2f4f6a3d9b11",
		"market": "MDA",
		"insumos": [
			{"hour": 1, "min": 0, "max": 100, "note": "c_amb", "price_ft1": 56.5},
			{"hour": 2, "min": 0, "max": 100, "note": "c_amb", "price_ft1": 56.5}
		]
	}`

	post := func(e *echo.Echo, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/insumos", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("reports inserted and updated hours", func(t *testing.T) {
		service := &fakeService{
			reconcile: func(_ context.Context, key models.InsumoKey, incoming []models.Insumo) (models.WriteInsumosResult, error) {
				assert.Equal(t, testDate, key.Date)
				assert.Len(t, incoming, 2)
				return models.WriteInsumosResult{Inserted: []int{1}, Updated: []int{2}}, nil
			},
		}
		e := newTestServer(service)

		rec := post(e, validBody)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"inserted":[1],"updated":[2]}}`, rec.Body.String())
	})

	t.Run("out-of-range hour is rejected before the service runs", func(t *testing.T) {
		called := false
		service := &fakeService{
			reconcile: func(_ context.Context, _ models.InsumoKey, _ []models.Insumo) (models.WriteInsumosResult, error) {
				called = true
				return models.WriteInsumosResult{}, nil
			},
		}
		e := newTestServer(service)

		rec := post(e, strings.Replace(validBody, `"hour": 2`, `"hour": 26`, 1))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)

		var body struct {
			Error map[string][]string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Contains(t, body.Error, "hour")
		assert.Contains(t, body.Error["hour"][0], "insumos[1]")
	})

	t.Run("malformed JSON is a 400 on the request itself", func(t *testing.T) {
		e := newTestServer(&fakeService{})

		rec := post(e, `{"date": `)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Error map[string][]string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Error, "request")
	})

	t.Run("reconcile failure is an opaque 500", func(t *testing.T) {
		service := &fakeService{
			reconcile: func(_ context.Context, _ models.InsumoKey, _ []models.Insumo) (models.WriteInsumosResult, error) {
				return models.WriteInsumosResult{}, errors.New("pq: deadlock detected")
			},
		}
		e := newTestServer(service)

		rec := post(e, validBody)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Something went wrong, man"}`, rec.Body.String())
	})
}
