package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool     `json:"success" example:"false"`
	Error   APIError `json:"error"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"tariff store not reachable"`
}

// DutyComponentResponse documents one priced duty line.
type DutyComponentResponse struct {
	DutyType    string  `json:"duty_type" example:"fta"`
	Rate        float64 `json:"rate" example:"0"`
	Amount      float64 `json:"amount" example:"0.00"`
	Description string  `json:"description" example:"AUSFTA preferential rate"`
	Basis       string  `json:"basis" example:"ad valorem on customs value"`
	MatchedCode string  `json:"matched_code,omitempty" example:"84713000"`
	Reference   string  `json:"reference,omitempty" example:"ADN 2023/017"`
}

// DutyCalculationResponse documents the calculation result returned in the
// data field of the envelope.
type DutyCalculationResponse struct {
	HSCode             string                  `json:"hs_code" example:"8471300010"`
	CountryCode        string                  `json:"country_code" example:"USA"`
	CustomsValue       float64                 `json:"customs_value" example:"2500.00"`
	CalculationDate    string                  `json:"calculation_date" example:"2024-07-01"`
	GeneralDuty        *DutyComponentResponse  `json:"general_duty"`
	FTADuty            *DutyComponentResponse  `json:"fta_duty"`
	AntiDumpingDuty    *DutyComponentResponse  `json:"anti_dumping_duty"`
	CountervailingDuty *DutyComponentResponse  `json:"countervailing_duty"`
	TCOExemption       *TCOExemptionResponse   `json:"tco_exemption"`
	GSTComponent       *DutyComponentResponse  `json:"gst_component"`
	Components         []DutyComponentResponse `json:"components"`
	BestRateType       string                  `json:"best_rate_type" example:"fta"`
	TotalDuty          float64                 `json:"total_duty" example:"0.00"`
	DutyInclusiveValue float64                 `json:"duty_inclusive_value" example:"2500.00"`
	TotalGST           float64                 `json:"total_gst" example:"250.00"`
	TotalAmount        float64                 `json:"total_amount" example:"2750.00"`
	CalculationSteps   []string                `json:"calculation_steps"`
	DegradedSources    []string                `json:"degraded_sources,omitempty"`
}

// TCOExemptionResponse documents an advisory concession order.
type TCOExemptionResponse struct {
	ReferenceNumber string `json:"reference_number" example:"TC 2023/04512"`
	HSCode          string `json:"hs_code" example:"84713000"`
	Description     string `json:"description" example:"Portable automatic data processing machines"`
	EffectiveDate   string `json:"effective_date" example:"2023-03-01T00:00:00Z"`
	IsCurrent       bool   `json:"is_current" example:"true"`
}
