package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuevaio/cpp-insumos/pkg/models"
)

const (
	testDate   = "2024-06-15"
	testUnitID = "7a9bd2c1-53f0-4a35-9f63-2f4f6a3d9b11"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }
func boolPtr(v bool) *bool        { return &v }

func validPayload() InsumoPayload {
	return InsumoPayload{
		Hour:     intPtr(1),
		Min:      floatPtr(0),
		Max:      floatPtr(100),
		Note:     stringPtr("c_amb"),
		PriceFT1: floatPtr(56.5),
	}
}

func validRequest(payloads ...InsumoPayload) WriteRequest {
	return WriteRequest{
		Date:    testDate,
		UnitID:  testUnitID,
		Market:  "MDA",
		Insumos: payloads,
	}
}

func TestValidateReadQuery(t *testing.T) {
	t.Run("valid query", func(t *testing.T) {
		key, err := ValidateReadQuery(ReadQuery{Date: testDate, UnitID: testUnitID, Market: "MTR"})
		require.NoError(t, err)
		assert.Equal(t, testDate, key.Date)
		assert.Equal(t, testUnitID, key.UnitID.String())
		assert.Equal(t, models.MarketMTR, key.Market)
	})

	t.Run("missing parameters report every field", func(t *testing.T) {
		_, err := ValidateReadQuery(ReadQuery{})
		require.Error(t, err)

		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "date")
		assert.Contains(t, errs, "unit_id")
		assert.Contains(t, errs, "market")
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := ValidateReadQuery(ReadQuery{Date: "15/06/2024", UnitID: testUnitID, Market: "MDA"})
		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "date")
		assert.NotContains(t, errs, "unit_id")
	})

	t.Run("unknown market", func(t *testing.T) {
		_, err := ValidateReadQuery(ReadQuery{Date: testDate, UnitID: testUnitID, Market: "spot"})
		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "market")
	})
}

func TestValidateWriteRequest_HourBounds(t *testing.T) {
	for _, hour := range []int{1, 25} {
		t.Run(fmt.Sprintf("hour %d accepted", hour), func(t *testing.T) {
			p := validPayload()
			p.Hour = intPtr(hour)
			_, records, err := ValidateWriteRequest(validRequest(p))
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, models.HourToken(hour), records[0].Hour)
		})
	}

	for _, hour := range []int{0, 26, -3} {
		t.Run(fmt.Sprintf("hour %d rejected", hour), func(t *testing.T) {
			p := validPayload()
			p.Hour = intPtr(hour)
			_, _, err := ValidateWriteRequest(validRequest(p))
			var errs Errors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs, "hour")
		})
	}
}

func TestValidateWriteRequest_PriceBounds(t *testing.T) {
	t.Run("price at the cap is accepted", func(t *testing.T) {
		p := validPayload()
		p.PriceFT1 = floatPtr(1000.000)
		_, records, err := ValidateWriteRequest(validRequest(p))
		require.NoError(t, err)
		assert.Equal(t, "1000.000", records[0].PriceFT1)
	})

	t.Run("price above the cap is rejected", func(t *testing.T) {
		p := validPayload()
		p.PriceFT1 = floatPtr(1000.001)
		_, _, err := ValidateWriteRequest(validRequest(p))
		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "price_ft1")
	})

	t.Run("negative price is rejected", func(t *testing.T) {
		p := validPayload()
		p.PriceFT1 = floatPtr(-0.001)
		_, _, err := ValidateWriteRequest(validRequest(p))
		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "price_ft1")
	})

	t.Run("share above one is rejected", func(t *testing.T) {
		p := validPayload()
		p.ShareFT1 = floatPtr(1.001)
		_, _, err := ValidateWriteRequest(validRequest(p))
		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "share_ft1")
	})
}

func TestValidateWriteRequest_Coercion(t *testing.T) {
	p := InsumoPayload{
		Hour:     intPtr(7),
		Min:      floatPtr(0),
		Max:      floatPtr(56.5),
		ShareFT1: floatPtr(0.5),
		Note:     stringPtr("sa_fda"),
		AGC:      boolPtr(true),
		PriceFT1: floatPtr(120),
		PriceFT2: floatPtr(130.25),
	}

	key, records, err := ValidateWriteRequest(validRequest(p))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, models.MarketMDA, key.Market)

	rec := records[0]
	assert.Equal(t, "7", rec.Hour)
	assert.Equal(t, "0.000", rec.Min)
	assert.Equal(t, "56.500", rec.Max)
	require.NotNil(t, rec.ShareFT1)
	assert.Equal(t, "0.500", *rec.ShareFT1)
	assert.Nil(t, rec.ShareFT2)
	assert.Equal(t, models.NoteSaFda, rec.Note)
	assert.True(t, rec.AGC)
	assert.Equal(t, "120.000", rec.PriceFT1)
	require.NotNil(t, rec.PriceFT2)
	assert.Equal(t, "130.250", *rec.PriceFT2)
}

func TestValidateWriteRequest_AGCDefaultsFalse(t *testing.T) {
	_, records, err := ValidateWriteRequest(validRequest(validPayload()))
	require.NoError(t, err)
	assert.False(t, records[0].AGC)
}

func TestValidateWriteRequest_CollectsEveryFailure(t *testing.T) {
	bad := InsumoPayload{
		Hour:     intPtr(26),
		Max:      floatPtr(100),
		Note:     stringPtr("nota"),
		PriceFT1: floatPtr(2000),
	}

	_, _, err := ValidateWriteRequest(validRequest(validPayload(), bad))

	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "hour")
	assert.Contains(t, errs, "min")
	assert.Contains(t, errs, "note")
	assert.Contains(t, errs, "price_ft1")

	// messages name the failing record
	require.NotEmpty(t, errs["hour"])
	assert.Contains(t, errs["hour"][0], "insumos[1]")
}

func TestValidateWriteRequest_EnvelopeErrors(t *testing.T) {
	p := validPayload()
	_, _, err := ValidateWriteRequest(WriteRequest{
		Date:    "June 15",
		UnitID:  "not-a-uuid",
		Market:  "spot",
		Insumos: []InsumoPayload{p},
	})

	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "date")
	assert.Contains(t, errs, "unit_id")
	assert.Contains(t, errs, "market")
}
