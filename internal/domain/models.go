package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// CommodityCode is a node in the commodity-code hierarchy.
type CommodityCode struct {
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
	Level       int    `db:"level" json:"level"`
}

// GeneralRate is a statutory (general tariff) duty rate for a code.
// Rate is a percentage for ad valorem units and a per-unit amount for
// specific units.
type GeneralRate struct {
	Code          string          `db:"code"`
	Rate          decimal.Decimal `db:"rate"`
	UnitType      RateUnit        `db:"unit_type"`
	RateText      string          `db:"rate_text"`
	EffectiveFrom *time.Time      `db:"effective_from"`
	EffectiveTo   *time.Time      `db:"effective_to"`
}

// ValidOn reports whether the rate applies on date. EffectiveTo is the first
// day the rate no longer applies.
func (r *GeneralRate) ValidOn(date time.Time) bool {
	if r.EffectiveFrom != nil && r.EffectiveFrom.After(date) {
		return false
	}
	return r.EffectiveTo == nil || r.EffectiveTo.After(date)
}

// FTARate is a preferential rate granted under a trade agreement.
type FTARate struct {
	Code             string              `db:"code"`
	AgreementCode    string              `db:"agreement_code"`
	CountryCode      string              `db:"country_code"`
	PreferentialRate decimal.Decimal     `db:"preferential_rate"`
	EffectiveRate    decimal.NullDecimal `db:"effective_rate"`
	StagingCategory  string              `db:"staging_category"`
	EffectiveDate    time.Time           `db:"effective_date"`
	EliminationDate  *time.Time          `db:"elimination_date"`
	IsActive         bool                `db:"is_active"`
}

// AppliedRate is the rate used for comparison: the effective rate when one
// is on file, the preferential rate otherwise.
func (r *FTARate) AppliedRate() decimal.Decimal {
	if r.EffectiveRate.Valid {
		return r.EffectiveRate.Decimal
	}
	return r.PreferentialRate
}

// ValidOn reports whether the agreement rate applies on date.
func (r *FTARate) ValidOn(date time.Time) bool {
	if !r.IsActive || r.EffectiveDate.After(date) {
		return false
	}
	return r.EliminationDate == nil || r.EliminationDate.After(date)
}

// TradeRemedy is an anti-dumping or countervailing measure. A nil
// ExporterName marks the country-general rate for the case.
type TradeRemedy struct {
	Code           string              `db:"code"`
	CountryCode    string              `db:"country_code"`
	CaseNumber     string              `db:"case_number"`
	RemedyType     RemedyType          `db:"remedy_type"`
	Rate           decimal.NullDecimal `db:"rate"`
	SpecificAmount decimal.NullDecimal `db:"specific_amount"`
	SpecificUnit   *string             `db:"specific_unit"`
	ExporterName   *string             `db:"exporter_name"`
	EffectiveDate  time.Time           `db:"effective_date"`
	ExpiryDate     *time.Time          `db:"expiry_date"`
	IsActive       bool                `db:"is_active"`
}

// ValidOn reports whether the measure is in force on date.
func (r *TradeRemedy) ValidOn(date time.Time) bool {
	if !r.IsActive || r.EffectiveDate.After(date) {
		return false
	}
	return r.ExpiryDate == nil || r.ExpiryDate.After(date)
}

// TCOExemption is a tariff concession order on file.
type TCOExemption struct {
	ReferenceNumber string     `db:"reference_number"`
	Code            string     `db:"code"`
	Description     string     `db:"description"`
	EffectiveDate   time.Time  `db:"effective_date"`
	ExpiryDate      *time.Time `db:"expiry_date"`
	IsCurrent       bool       `db:"is_current"`
}

// ValidOn reports whether the concession is current on date.
func (r *TCOExemption) ValidOn(date time.Time) bool {
	if !r.IsCurrent || r.EffectiveDate.After(date) {
		return false
	}
	return r.ExpiryDate == nil || r.ExpiryDate.After(date)
}

// GSTProvision is a GST exemption or concession provision. A nil Code
// applies to all goods.
type GSTProvision struct {
	Code              *string `db:"code"`
	ExemptionType     string  `db:"exemption_type"`
	ScheduleReference string  `db:"schedule_reference"`
	Description       string  `db:"description"`
	IsActive          bool    `db:"is_active"`
}

// DutyCalculationInput is a single calculation request.
type DutyCalculationInput struct {
	HSCode          string
	CountryCode     string
	CustomsValue    decimal.Decimal
	Quantity        *decimal.Decimal
	CalculationDate time.Time
	ExporterName    string
	ValueBasis      ValueBasis
}

// DutyComponent is one priced duty line.
type DutyComponent struct {
	Kind        DutyKind
	Rate        decimal.Decimal
	Amount      decimal.Decimal
	Description string
	Basis       string
	MatchedCode string
	Reference   string
}

type dutyComponentJSON struct {
	DutyType    DutyKind    `json:"duty_type"`
	Rate        json.Number `json:"rate"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Basis       string      `json:"basis"`
	MatchedCode string      `json:"matched_code,omitempty"`
	Reference   string      `json:"reference,omitempty"`
}

// MarshalJSON renders rates and amounts as JSON numbers.
func (c DutyComponent) MarshalJSON() ([]byte, error) {
	return json.Marshal(dutyComponentJSON{
		DutyType:    c.Kind,
		Rate:        json.Number(c.Rate.String()),
		Amount:      money(c.Amount),
		Description: c.Description,
		Basis:       c.Basis,
		MatchedCode: c.MatchedCode,
		Reference:   c.Reference,
	})
}

// ExemptionRecord is a TCO exemption surfaced in a result. It is advisory
// and never changes the computed totals.
type ExemptionRecord struct {
	ReferenceNumber string     `json:"reference_number"`
	MatchedCode     string     `json:"hs_code"`
	Description     string     `json:"description"`
	EffectiveDate   time.Time  `json:"effective_date"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	IsCurrent       bool       `json:"is_current"`
}

// DutyCalculationResult is the outcome of one calculation. Components holds
// at most one entry per DutyKind, in the order they were determined.
type DutyCalculationResult struct {
	Input              DutyCalculationInput
	Components         []DutyComponent
	TCOExemption       *ExemptionRecord
	BestRateType       BestRateType
	TotalDuty          decimal.Decimal
	DutyInclusiveValue decimal.Decimal
	TotalGST           decimal.Decimal
	TotalAmount        decimal.Decimal
	CalculationSteps   []string
	DegradedSources    []string
}

// Component returns the component of the given kind, or nil.
func (r *DutyCalculationResult) Component(kind DutyKind) *DutyComponent {
	for i := range r.Components {
		if r.Components[i].Kind == kind {
			return &r.Components[i]
		}
	}
	return nil
}

// SetComponent adds c, replacing any existing component of the same kind.
func (r *DutyCalculationResult) SetComponent(c DutyComponent) {
	for i := range r.Components {
		if r.Components[i].Kind == c.Kind {
			r.Components[i] = c
			return
		}
	}
	r.Components = append(r.Components, c)
}

type dutyCalculationResultJSON struct {
	HSCode             string           `json:"hs_code"`
	CountryCode        string           `json:"country_code"`
	CustomsValue       json.Number      `json:"customs_value"`
	Quantity           *json.Number     `json:"quantity,omitempty"`
	CalculationDate    string           `json:"calculation_date"`
	ExporterName       string           `json:"exporter_name,omitempty"`
	ValueBasis         ValueBasis       `json:"value_basis,omitempty"`
	GeneralDuty        *DutyComponent   `json:"general_duty"`
	FTADuty            *DutyComponent   `json:"fta_duty"`
	AntiDumpingDuty    *DutyComponent   `json:"anti_dumping_duty"`
	CountervailingDuty *DutyComponent   `json:"countervailing_duty"`
	TCOExemption       *ExemptionRecord `json:"tco_exemption"`
	GSTComponent       *DutyComponent   `json:"gst_component"`
	Components         []DutyComponent  `json:"components"`
	BestRateType       BestRateType     `json:"best_rate_type"`
	TotalDuty          json.Number      `json:"total_duty"`
	DutyInclusiveValue json.Number      `json:"duty_inclusive_value"`
	TotalGST           json.Number      `json:"total_gst"`
	TotalAmount        json.Number      `json:"total_amount"`
	CalculationSteps   []string         `json:"calculation_steps"`
	DegradedSources    []string         `json:"degraded_sources,omitempty"`
}

// MarshalJSON keeps the per-kind field names existing consumers read while
// also exposing the ordered component list.
func (r DutyCalculationResult) MarshalJSON() ([]byte, error) {
	out := dutyCalculationResultJSON{
		HSCode:             r.Input.HSCode,
		CountryCode:        r.Input.CountryCode,
		CustomsValue:       money(r.Input.CustomsValue),
		ExporterName:       r.Input.ExporterName,
		ValueBasis:         r.Input.ValueBasis,
		GeneralDuty:        r.Component(DutyKindGeneral),
		FTADuty:            r.Component(DutyKindFTA),
		AntiDumpingDuty:    r.Component(DutyKindAntiDumping),
		CountervailingDuty: r.Component(DutyKindCountervailing),
		TCOExemption:       r.TCOExemption,
		GSTComponent:       r.Component(DutyKindGST),
		Components:         r.Components,
		BestRateType:       r.BestRateType,
		TotalDuty:          money(r.TotalDuty),
		DutyInclusiveValue: money(r.DutyInclusiveValue),
		TotalGST:           money(r.TotalGST),
		TotalAmount:        money(r.TotalAmount),
		CalculationSteps:   r.CalculationSteps,
		DegradedSources:    r.DegradedSources,
	}
	if !r.Input.CalculationDate.IsZero() {
		out.CalculationDate = r.Input.CalculationDate.Format(DateLayout)
	}
	if r.Input.Quantity != nil {
		q := json.Number(r.Input.Quantity.String())
		out.Quantity = &q
	}
	if out.Components == nil {
		out.Components = []DutyComponent{}
	}
	if out.CalculationSteps == nil {
		out.CalculationSteps = []string{}
	}
	return json.Marshal(out)
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
