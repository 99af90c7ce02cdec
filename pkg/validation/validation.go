// Package validation holds the typed validate-and-coerce step for each
// endpoint. Envelope fields go through go-playground/validator; the per-hour
// records are checked field by field so every failing field is reported and
// accepted values are coerced into their canonical exchange form.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cuevaio/cpp-insumos/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields under their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Errors maps a field name to the messages recorded against it. It is the
// ValidationError half of the error taxonomy: the error middleware renders it
// as a 400 with this map as the body.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed on: " + strings.Join(fields, ", ")
}

// NewErrors builds an Errors with a single field message.
func NewErrors(field, message string) Errors {
	errs := Errors{}
	errs.Add(field, message)
	return errs
}

var decimalRanges = struct {
	price decimal.Decimal
	share decimal.Decimal
}{
	price: decimal.NewFromInt(1000),
	share: decimal.NewFromInt(1),
}

// ReadQuery carries the raw query parameters of the read endpoint.
type ReadQuery struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	UnitID string `json:"unit_id" validate:"required,uuid"`
	Market string `json:"market" validate:"required,oneof=MDA MTR"`
}

// ValidateReadQuery validates the read query parameters and returns the
// record key they identify.
func ValidateReadQuery(q ReadQuery) (models.InsumoKey, error) {
	errs := Errors{}
	collectStructErrors(errs, validate.Struct(q))
	if len(errs) > 0 {
		return models.InsumoKey{}, errs
	}

	unitID, err := uuid.Parse(q.UnitID)
	if err != nil {
		return models.InsumoKey{}, NewErrors("unit_id", "must be a valid UUID")
	}

	return models.InsumoKey{
		Date:   q.Date,
		UnitID: unitID,
		Market: models.Market(q.Market),
	}, nil
}

// WriteRequest is the raw write payload. Numeric fields bind as pointers so
// absent and present-but-invalid values are distinguishable.
type WriteRequest struct {
	Date    string          `json:"date" validate:"required,datetime=2006-01-02"`
	UnitID  string          `json:"unit_id" validate:"required,uuid"`
	Market  string          `json:"market" validate:"required,oneof=MDA MTR"`
	Insumos []InsumoPayload `json:"insumos" validate:"required"`
}

// InsumoPayload is one raw per-hour record of the write payload.
type InsumoPayload struct {
	Hour     *int     `json:"hour"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	ShareFT1 *float64 `json:"share_ft1"`
	ShareFT2 *float64 `json:"share_ft2"`
	Note     *string  `json:"note"`
	AGC      *bool    `json:"agc"`
	PriceFT1 *float64 `json:"price_ft1"`
	PriceFT2 *float64 `json:"price_ft2"`
}

// ValidateWriteRequest validates the whole write payload. Either every field
// of every record passes and the coerced canonical records are returned, or
// the full set of field errors is returned and nothing else happens.
func ValidateWriteRequest(req WriteRequest) (models.InsumoKey, []models.Insumo, error) {
	errs := Errors{}
	collectStructErrors(errs, validate.Struct(req))

	records := make([]models.Insumo, 0, len(req.Insumos))
	for i, payload := range req.Insumos {
		records = append(records, validateRecord(errs, i, payload))
	}

	if len(errs) > 0 {
		return models.InsumoKey{}, nil, errs
	}

	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return models.InsumoKey{}, nil, NewErrors("unit_id", "must be a valid UUID")
	}

	key := models.InsumoKey{
		Date:   req.Date,
		UnitID: unitID,
		Market: models.Market(req.Market),
	}
	return key, records, nil
}

// validateRecord checks one per-hour record and coerces it to canonical form.
// Errors are keyed by bare field name; the message names the offending index.
func validateRecord(errs Errors, idx int, p InsumoPayload) models.Insumo {
	var rec models.Insumo

	switch {
	case p.Hour == nil:
		errs.Add("hour", fmt.Sprintf("insumos[%d]: hour is required", idx))
	case *p.Hour < models.MinHour || *p.Hour > models.MaxHour:
		errs.Add("hour", fmt.Sprintf("insumos[%d]: hour must be between %d and %d", idx, models.MinHour, models.MaxHour))
	default:
		rec.Hour = models.HourToken(*p.Hour)
	}

	rec.Min = requireDecimal(errs, idx, "min", p.Min, decimalRanges.price)
	rec.Max = requireDecimal(errs, idx, "max", p.Max, decimalRanges.price)
	rec.ShareFT1 = optionalDecimal(errs, idx, "share_ft1", p.ShareFT1, decimalRanges.share)
	rec.ShareFT2 = optionalDecimal(errs, idx, "share_ft2", p.ShareFT2, decimalRanges.share)

	switch {
	case p.Note == nil:
		errs.Add("note", fmt.Sprintf("insumos[%d]: note is required", idx))
	case !models.Note(*p.Note).IsValid():
		errs.Add("note", fmt.Sprintf("insumos[%d]: note %q is not a recognized tag", idx, *p.Note))
	default:
		rec.Note = models.Note(*p.Note)
	}

	// absent or null agc coerces to false
	if p.AGC != nil {
		rec.AGC = *p.AGC
	}

	rec.PriceFT1 = requireDecimal(errs, idx, "price_ft1", p.PriceFT1, decimalRanges.price)
	rec.PriceFT2 = optionalDecimal(errs, idx, "price_ft2", p.PriceFT2, decimalRanges.price)

	return rec
}

// requireDecimal validates a required numeric field against [0, max] and
// returns its fixed 3-decimal canonical form.
func requireDecimal(errs Errors, idx int, field string, v *float64, max decimal.Decimal) string {
	if v == nil {
		errs.Add(field, fmt.Sprintf("insumos[%d]: %s is required", idx, field))
		return ""
	}
	d := decimal.NewFromFloat(*v)
	if d.IsNegative() || d.GreaterThan(max) {
		errs.Add(field, fmt.Sprintf("insumos[%d]: %s must be between 0 and %s", idx, field, max))
		return ""
	}
	return d.StringFixed(3)
}

// optionalDecimal is requireDecimal for nullable fields: nil stays nil.
func optionalDecimal(errs Errors, idx int, field string, v *float64, max decimal.Decimal) *string {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	if d.IsNegative() || d.GreaterThan(max) {
		errs.Add(field, fmt.Sprintf("insumos[%d]: %s must be between 0 and %s", idx, field, max))
		return nil
	}
	s := d.StringFixed(3)
	return &s
}

// collectStructErrors folds validator errors into the field error map.
func collectStructErrors(errs Errors, err error) {
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("request", err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), messageForTag(fe))
	}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a valid calendar date (YYYY-MM-DD)"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
