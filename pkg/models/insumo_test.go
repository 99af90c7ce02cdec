package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHourTokens(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for hour := MinHour; hour <= MaxHour; hour++ {
			assert.Equal(t, hour, HourFromToken(HourToken(hour)))
		}
	})

	t.Run("malformed token yields zero", func(t *testing.T) {
		assert.Equal(t, 0, HourFromToken("not-an-hour"))
	})
}

func TestMarketIsValid(t *testing.T) {
	assert.True(t, MarketMDA.IsValid())
	assert.True(t, MarketMTR.IsValid())
	assert.False(t, Market("MDA ").IsValid())
	assert.False(t, Market("spot").IsValid())
}

func TestNoteIsValid(t *testing.T) {
	for _, note := range Notes {
		assert.True(t, note.IsValid(), string(note))
	}
	assert.False(t, Note("c_amb2").IsValid())
	assert.False(t, Note("").IsValid())
}

func TestInsumoView(t *testing.T) {
	share := "0.500"
	rec := Insumo{
		Hour:     "25",
		Min:      "0.000",
		Max:      "1000.000",
		ShareFT1: &share,
		ShareFT2: nil,
		Note:     NoteCAmb,
		AGC:      true,
		PriceFT1: "56.500",
		PriceFT2: nil,
	}

	view := rec.View()

	assert.Equal(t, 25, view.Hour)
	assert.Equal(t, 0.0, view.Min)
	assert.Equal(t, 1000.0, view.Max)
	if assert.NotNil(t, view.ShareFT1) {
		assert.Equal(t, 0.5, *view.ShareFT1)
	}
	assert.Nil(t, view.ShareFT2)
	assert.Equal(t, NoteCAmb, view.Note)
	assert.True(t, view.AGC)
	assert.Equal(t, 56.5, view.PriceFT1)
	assert.Nil(t, view.PriceFT2)
}
