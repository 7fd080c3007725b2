// Package numeric normalizes the heterogeneous numeric cells that come
// out of scraped financial tables (천단위 콤마, 퍼센트, 괄호, "-" 플레이스홀더).
//
// The degrade-to-zero policy is deliberate: 빠진 재무 데이터가 배치 분석을
// 중단시켜서는 안 된다. Parse는 명시적 Ok/Missing 값을 돌려주고, OrZero가
// 그 정책이 적용되는 유일한 지점이다.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Value is an explicit Ok/Missing parse result
type Value struct {
	F  float64
	OK bool
}

// Missing returns the missing sentinel
func Missing() Value {
	return Value{}
}

// Of wraps a known float
func Of(f float64) Value {
	return Value{F: f, OK: true}
}

// OrZero applies the silent-zero policy: missing becomes 0.0
func (v Value) OrZero() float64 {
	if !v.OK {
		return 0
	}
	return v.F
}

// stripper removes formatting characters before float parsing.
// 괄호는 제거만 하고 부호는 바꾸지 않는다. 회계 관례상 괄호는 음수지만
// 여기서는 "(500)" -> 500.
var stripper = strings.NewReplacer(",", "", "%", "", "(", "", ")", "")

// Parse normalizes a raw cell into a Value.
// Empty, whitespace-only, "-", N/A markers and parse failures are Missing.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return Missing()
	}

	switch strings.ToUpper(s) {
	case "N/A", "N.A.", "NA", "NAN":
		return Missing()
	}

	s = stripper.Replace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}

	return Of(f)
}

// ParseFloat is the one-shot form: Parse + OrZero
func ParseFloat(raw string) float64 {
	return Parse(raw).OrZero()
}
