package domain

import "math"

// PriceInputs is everything one landed-cost calculation needs.
// Percent fields are expressed 0-100 and are not range-checked here.
type PriceInputs struct {
	ExwPriceYuan        float64 `json:"exwPriceYuan"`
	UnitsPerCarton      int     `json:"unitsPerCarton"`
	CartonLengthCm      float64 `json:"cartonLengthCm"`
	CartonWidthCm       float64 `json:"cartonWidthCm"`
	CartonHeightCm      float64 `json:"cartonHeightCm"`
	CategoryDutyPercent float64 `json:"categoryDutyPercent"`
	CategoryIgstPercent float64 `json:"categoryIgstPercent"`
	ExchangeRate        float64 `json:"exchangeRate"`
	SourcingCommission  float64 `json:"sourcingCommission"`
	FreightPerCbm       float64 `json:"freightPerCbm"`
	InsurancePercent    float64 `json:"insurancePercent"`
	SwSurchargePercent  float64 `json:"swSurchargePercent"`
	OurMarkupPercent    float64 `json:"ourMarkupPercent"`
	TargetStoreMargin   float64 `json:"targetStoreMargin"`
}

// PriceResult is the rounded snapshot produced by one calculation.
type PriceResult struct {
	FobPriceForeign    float64 `json:"fobPriceForeign"`
	FobPriceLocal      float64 `json:"fobPriceLocal"`
	CbmPerUnit         float64 `json:"cbmPerUnit"`
	FreightPerUnit     float64 `json:"freightPerUnit"`
	InsuranceLocal     float64 `json:"insuranceLocal"`
	CifPriceLocal      float64 `json:"cifPriceLocal"`
	CustomsDuty        float64 `json:"customsDuty"`
	SwSurcharge        float64 `json:"swSurcharge"`
	AssessableValue    float64 `json:"assessableValue"`
	ImportTax          float64 `json:"importTax"`
	TotalLandedCost    float64 `json:"totalLandedCost"`
	StoreLandingPrice  float64 `json:"storeLandingPrice"`
	SuggestedMrp       float64 `json:"suggestedMrp"`
	StoreMarginPercent float64 `json:"storeMarginPercent"`
	StoreMarginRs      float64 `json:"storeMarginRs"`
	MarginWarning      bool    `json:"marginWarning"`
}

// Finite reports whether every amount in the snapshot is a real number.
// Inputs large enough to overflow float64 produce ±Inf or NaN.
func (r PriceResult) Finite() bool {
	for _, v := range []float64{
		r.FobPriceForeign, r.FobPriceLocal, r.CbmPerUnit, r.FreightPerUnit,
		r.InsuranceLocal, r.CifPriceLocal, r.CustomsDuty, r.SwSurcharge,
		r.AssessableValue, r.ImportTax, r.TotalLandedCost, r.StoreLandingPrice,
		r.SuggestedMrp, r.StoreMarginPercent, r.StoreMarginRs,
	} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// CostBasis is the per-product part of PriceInputs.
type CostBasis struct {
	ExwPriceYuan   float64
	UnitsPerCarton int
	CartonLengthCm float64
	CartonWidthCm  float64
	CartonHeightCm float64
}

// Priceable reports whether the cost basis carries a positive supplier quote.
func (b CostBasis) Priceable() bool {
	return b.ExwPriceYuan > 0
}

// CategoryRates is the per-category part of PriceInputs.
type CategoryRates struct {
	CustomsDutyPercent float64
	IgstPercent        float64
}

// Coefficients are the global pricing parameters, read once per recompute
// and passed by value so a calculation never observes a later change.
type Coefficients struct {
	ExchangeRate       float64 `json:"exchangeRate"`
	SourcingCommission float64 `json:"sourcingCommission"`
	FreightPerCbm      float64 `json:"freightPerCbm"`
	InsurancePercent   float64 `json:"insurancePercent"`
	SwSurchargePercent float64 `json:"swSurchargePercent"`
	OurMarkupPercent   float64 `json:"ourMarkupPercent"`
	TargetStoreMargin  float64 `json:"targetStoreMargin"`
}

// NewPriceInputs assembles the engine input from its three sources.
func NewPriceInputs(basis CostBasis, rates CategoryRates, coeff Coefficients) PriceInputs {
	return PriceInputs{
		ExwPriceYuan:        basis.ExwPriceYuan,
		UnitsPerCarton:      basis.UnitsPerCarton,
		CartonLengthCm:      basis.CartonLengthCm,
		CartonWidthCm:       basis.CartonWidthCm,
		CartonHeightCm:      basis.CartonHeightCm,
		CategoryDutyPercent: rates.CustomsDutyPercent,
		CategoryIgstPercent: rates.IgstPercent,
		ExchangeRate:        coeff.ExchangeRate,
		SourcingCommission:  coeff.SourcingCommission,
		FreightPerCbm:       coeff.FreightPerCbm,
		InsurancePercent:    coeff.InsurancePercent,
		SwSurchargePercent:  coeff.SwSurchargePercent,
		OurMarkupPercent:    coeff.OurMarkupPercent,
		TargetStoreMargin:   coeff.TargetStoreMargin,
	}
}

// Retail price points, ascending. MRP banding picks from this list only.
var mrpBands = [...]float64{29, 49, 79, 99, 129, 149, 199, 249, 299, 399, 499, 599, 799, 999}

// MRPBands returns a copy of the retail price points in ascending order.
func MRPBands() []float64 {
	out := make([]float64, len(mrpBands))
	copy(out, mrpBands[:])
	return out
}

// IsMRPBand reports whether v is one of the retail price points.
func IsMRPBand(v float64) bool {
	for _, b := range mrpBands {
		if b == v {
			return true
		}
	}
	return false
}
