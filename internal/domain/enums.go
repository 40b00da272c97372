package domain

// DutyKind tags a DutyComponent with the regime that produced it.
type DutyKind string

const (
	DutyKindGeneral        DutyKind = "general"
	DutyKindFTA            DutyKind = "fta"
	DutyKindAntiDumping    DutyKind = "anti_dumping"
	DutyKindCountervailing DutyKind = "countervailing"
	DutyKindGST            DutyKind = "gst"
)

// BestRateType identifies which base rate was applied to the customs value.
type BestRateType string

const (
	BestRateGeneral BestRateType = "general"
	BestRateFTA     BestRateType = "fta"
)

// Valid reports whether t is one of the closed set of base rate types.
func (t BestRateType) Valid() bool {
	switch t {
	case BestRateGeneral, BestRateFTA:
		return true
	}
	return false
}

// ValueBasis is the valuation basis of the declared customs value. It is
// informational only and never changes the computation.
type ValueBasis string

const (
	ValueBasisCIF ValueBasis = "CIF"
	ValueBasisFOB ValueBasis = "FOB"
)

// RateUnit describes how a stored rate applies to the goods.
type RateUnit string

const (
	RateUnitAdValorem RateUnit = "ad_valorem"
	RateUnitSpecific  RateUnit = "specific"
)

// RemedyType distinguishes anti-dumping from countervailing measures.
type RemedyType string

const (
	RemedyDumping        RemedyType = "dumping"
	RemedyCountervailing RemedyType = "countervailing"
)

// StoreErrorMode decides how the calculator treats a failed leaf lookup.
type StoreErrorMode string

const (
	// StoreErrorDegrade treats a failed lookup as "not found" and records the
	// source in the result.
	StoreErrorDegrade StoreErrorMode = "degrade"
	// StoreErrorPropagate aborts the calculation with the lookup error.
	StoreErrorPropagate StoreErrorMode = "propagate"
)

// Component basis labels.
const (
	BasisAdValorem    = "ad valorem"
	BasisSpecific     = "specific"
	BasisThreshold    = "Threshold"
	BasisStandardRate = "Standard Rate"
)
