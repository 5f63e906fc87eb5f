// Package engine turns a supplier EXW quote into a landed cost and a
// suggested retail band. It does no I/O.
package engine

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storekeep/internal/pricing/domain"
)

const (
	currencyPlaces = 2
	volumePlaces   = 4
	percentPlaces  = 1

	cm3PerCbm = 1_000_000.0
)

// CalculatePrices runs the landed-cost pipeline over in. Intermediate values
// stay unrounded; only the returned snapshot is rounded.
func CalculatePrices(in domain.PriceInputs) domain.PriceResult {
	sourcingAmount := in.ExwPriceYuan * in.SourcingCommission / 100
	fobForeign := in.ExwPriceYuan + sourcingAmount
	fobLocal := fobForeign * in.ExchangeRate

	cbmPerCarton := (in.CartonLengthCm * in.CartonWidthCm * in.CartonHeightCm) / cm3PerCbm
	cbmPerUnit := 0.0
	if in.UnitsPerCarton > 0 {
		cbmPerUnit = cbmPerCarton / float64(in.UnitsPerCarton)
	}
	freightPerUnit := cbmPerUnit * in.FreightPerCbm

	insuranceLocal := fobLocal * in.InsurancePercent / 100
	cif := fobLocal + freightPerUnit + insuranceLocal

	customsDuty := cif * in.CategoryDutyPercent / 100
	swSurcharge := customsDuty * in.SwSurchargePercent / 100
	assessableValue := cif + customsDuty + swSurcharge
	importTax := assessableValue * in.CategoryIgstPercent / 100
	totalLandedCost := assessableValue + importTax

	storeLandingPrice := totalLandedCost * (1 + in.OurMarkupPercent/100)
	mrp := SuggestMRP(storeLandingPrice, in.TargetStoreMargin)

	marginRs := mrp - storeLandingPrice
	marginPct := 0.0
	if mrp > 0 {
		marginPct = marginRs / mrp * 100
	}
	roundedPct := round(marginPct, percentPlaces)

	return domain.PriceResult{
		FobPriceForeign:    round(fobForeign, currencyPlaces),
		FobPriceLocal:      round(fobLocal, currencyPlaces),
		CbmPerUnit:         round(cbmPerUnit, volumePlaces),
		FreightPerUnit:     round(freightPerUnit, currencyPlaces),
		InsuranceLocal:     round(insuranceLocal, currencyPlaces),
		CifPriceLocal:      round(cif, currencyPlaces),
		CustomsDuty:        round(customsDuty, currencyPlaces),
		SwSurcharge:        round(swSurcharge, currencyPlaces),
		AssessableValue:    round(assessableValue, currencyPlaces),
		ImportTax:          round(importTax, currencyPlaces),
		TotalLandedCost:    round(totalLandedCost, currencyPlaces),
		StoreLandingPrice:  round(storeLandingPrice, currencyPlaces),
		SuggestedMrp:       mrp,
		StoreMarginPercent: roundedPct,
		StoreMarginRs:      round(marginRs, currencyPlaces),
		MarginWarning:      roundedPct < in.TargetStoreMargin,
	}
}

// SuggestMRP returns the smallest band at or above slp whose margin clears
// targetMargin percent. When no band qualifies the largest band is returned.
func SuggestMRP(slp, targetMargin float64) float64 {
	bands := domain.MRPBands()
	for _, band := range bands {
		if band < slp {
			continue
		}
		if (band-slp)/band >= targetMargin/100 {
			return band
		}
	}
	return bands[len(bands)-1]
}

// round rounds half away from zero on the shortest decimal form of v, so
// 8.925 becomes 8.93 rather than following its binary expansion down.
// Overflowed values (±Inf, NaN) pass through unchanged.
func round(v float64, places int32) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
