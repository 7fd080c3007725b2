// Package valuation computes heuristic fair price estimates from
// fundamentals, plus the weekly fear/greed sentiment index.
//
// 공정가치는 시장가가 아니라 휴리스틱 참조 가격이다. 배포 단위로
// 하나의 variant만 사용한다 (혼용 금지).
package valuation

import (
	"github.com/wonny/valuescan/backend/internal/contracts"
)

// Variant selects the fair value model for a deployment
type Variant string

const (
	// VariantBlend: 수익가치 70% + 자산가치 30% + 심리보정
	VariantBlend Variant = "blend"
	// VariantMultiple: EPS 배수 + BPS + 부채 페널티
	VariantMultiple Variant = "multiple"
)

// ParseVariant normalizes a variant name, defaulting to blend
func ParseVariant(s string) Variant {
	if s == string(VariantMultiple) {
		return VariantMultiple
	}
	return VariantBlend
}

// debtUnitScale converts 억 단위 공시 금액 to won
const debtUnitScale = 1e8

// BlendFairValue is Variant A: earnings/asset blend with sentiment
// adjustment.
//
//	수익가치 = EPS / (기준금리% / 100)
//	기본가 = 수익가치*0.7 + BPS*0.3
//	심리보정 = 1 + ((50 - 공포지수) / 50 * 0.1)   → [0.9, 1.1]
//
// baseRatePct <= 0이면 수익가치는 0 (0 나눗셈/음수 역전 가드).
func BlendFairValue(f contracts.PeriodFigures, baseRatePct, fearGreed float64) contracts.FairValue {
	earningsValue := 0.0
	if baseRatePct > 0 {
		earningsValue = f.EPS / (baseRatePct / 100)
	}

	base := earningsValue*0.7 + f.BPS*0.3
	sentimentFactor := 1 + ((50-fearGreed)/50)*0.1

	return contracts.FairValue{
		BasePrice:  base,
		FinalPrice: base * sentimentFactor,
	}
}

// MultipleFairValue is Variant B: EPS/BPS multiple with debt penalty.
//
//	기본가 = EPS*10 + BPS
//	부채비율 > 100%면 초과부채를 주식수로 나눠 주당 차감
//
// shares <= 0이면 결과는 0 (하류 0 나눗셈 가드). TotalEquity <= 0이면
// 레버리지를 평가할 수 없는 것으로 보고 페널티를 생략한다. 무한
// 레버리지가 아니라 "판단 불가" 취급.
func MultipleFairValue(f contracts.PeriodFigures, shares float64) contracts.FairValue {
	if shares <= 0 {
		return contracts.FairValue{}
	}

	base := f.EPS*10 + f.BPS
	fv := contracts.FairValue{
		BasePrice:  base,
		FinalPrice: base,
	}

	if f.TotalEquity > 0 {
		debtRatio := f.TotalDebt / f.TotalEquity * 100
		if debtRatio > 100 {
			excessDebt := (f.TotalDebt - f.TotalEquity) * debtUnitScale
			fv.DebtPenalty = true
			fv.FinalPrice = base - excessDebt/shares
		}
	}

	return fv
}

// Inputs bundles the per-symbol context a variant may need
type Inputs struct {
	BaseRatePct float64 // Variant A
	FearGreed   float64 // Variant A
	Shares      float64 // Variant B
}

// FairValueFor runs the selected variant for one period's figures.
// 같은 종목의 확정/추정 figures에 동일하게 두 번 호출된다.
func FairValueFor(v Variant, f contracts.PeriodFigures, in Inputs) contracts.FairValue {
	if v == VariantMultiple {
		return MultipleFairValue(f, in.Shares)
	}
	return BlendFairValue(f, in.BaseRatePct, in.FearGreed)
}

// GapPct returns the fair-value deviation in percent.
// price <= 0이면 0 (표시용 중립값).
func GapPct(fair, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return (fair - price) / price * 100
}

// ROEFromPerShare derives ROE(%) as EPS/BPS when BPS is positive
func ROEFromPerShare(eps, bps float64) float64 {
	if bps <= 0 {
		return 0
	}
	return eps / bps * 100
}
