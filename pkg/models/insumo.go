package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Market identifies the trading session a record belongs to.
type Market string

const (
	MarketMDA Market = "MDA" // day-ahead market
	MarketMTR Market = "MTR" // real-time market
)

// IsValid reports whether m is a recognized market session.
func (m Market) IsValid() bool {
	return m == MarketMDA || m == MarketMTR
}

// Note is the classification tag attached to every insumo.
type Note string

const (
	NoteCAmb   Note = "c_amb"
	NoteCaAje  Note = "ca_aje"
	NoteRCom   Note = "r_com"
	NoteDecrem Note = "decrem"
	NoteSaFda  Note = "sa_fda"
	NoteSaPrg  Note = "sa_prg"
	NotePrueba Note = "prueba"
)

// Notes lists every valid classification tag.
var Notes = []Note{NoteCAmb, NoteCaAje, NoteRCom, NoteDecrem, NoteSaFda, NoteSaPrg, NotePrueba}

// IsValid reports whether n is a recognized classification tag.
func (n Note) IsValid() bool {
	for _, v := range Notes {
		if n == v {
			return true
		}
	}
	return false
}

// Hours run 1 through 25; hour 25 exists for the daylight-saving fold day.
const (
	MinHour = 1
	MaxHour = 25
)

// HourToken returns the canonical string token for an hour index.
func HourToken(hour int) string {
	return strconv.Itoa(hour)
}

// HourFromToken converts a stored hour token back to its integer index.
// Tokens are a closed enum at the storage layer, so a malformed value is a
// programming error and yields 0.
func HourFromToken(token string) int {
	hour, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}
	return hour
}

// InsumoKey is the request-scoped part of the primary key. The hour completes
// the key on each per-hour record.
type InsumoKey struct {
	Date   string
	UnitID uuid.UUID
	Market Market
}

// Insumo is one hourly record in its canonical exchange form: decimals are
// fixed 3-decimal strings and the hour is its string token, matching both the
// wire coercion and the numeric columns as Postgres returns them.
type Insumo struct {
	Hour      string    `db:"hour" json:"hour"`
	Min       string    `db:"min" json:"min"`
	Max       string    `db:"max" json:"max"`
	ShareFT1  *string   `db:"share_ft1" json:"share_ft1"`
	ShareFT2  *string   `db:"share_ft2" json:"share_ft2"`
	Note      Note      `db:"note" json:"note"`
	AGC       bool      `db:"agc" json:"agc"`
	PriceFT1  string    `db:"price_ft1" json:"price_ft1"`
	PriceFT2  *string   `db:"price_ft2" json:"price_ft2"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// InsumoView is the numeric read-side shape of a record. Key fields are
// hoisted to the response envelope and are not repeated here.
type InsumoView struct {
	Hour     int      `json:"hour"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	ShareFT1 *float64 `json:"share_ft1"`
	ShareFT2 *float64 `json:"share_ft2"`
	Note     Note     `json:"note"`
	AGC      bool     `json:"agc"`
	PriceFT1 float64  `json:"price_ft1"`
	PriceFT2 *float64 `json:"price_ft2"`
}

// View converts the canonical exchange form to its numeric read-side shape.
func (i Insumo) View() InsumoView {
	return InsumoView{
		Hour:     HourFromToken(i.Hour),
		Min:      toNumber(i.Min),
		Max:      toNumber(i.Max),
		ShareFT1: toNullableNumber(i.ShareFT1),
		ShareFT2: toNullableNumber(i.ShareFT2),
		Note:     i.Note,
		AGC:      i.AGC,
		PriceFT1: toNumber(i.PriceFT1),
		PriceFT2: toNullableNumber(i.PriceFT2),
	}
}

func toNumber(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func toNullableNumber(s *string) *float64 {
	if s == nil {
		return nil
	}
	f := toNumber(*s)
	return &f
}

// ReadInsumosData is the read response payload: key fields hoisted from the
// per-hour records plus the records themselves, sorted ascending by hour.
type ReadInsumosData struct {
	Date    string       `json:"date"`
	Market  Market       `json:"market"`
	UnitID  uuid.UUID    `json:"unit_id"`
	Insumos []InsumoView `json:"insumos"`
}

// ReadInsumosResponse wraps the read payload in the data envelope.
type ReadInsumosResponse struct {
	Data ReadInsumosData `json:"data"`
}

// WriteInsumosResult reports which hours were inserted and which were
// updated, in payload order. Untouched hours appear in neither list.
type WriteInsumosResult struct {
	Inserted []int `json:"inserted"`
	Updated  []int `json:"updated"`
}

// WriteInsumosResponse wraps the write result in the data envelope.
type WriteInsumosResponse struct {
	Data WriteInsumosResult `json:"data"`
}
