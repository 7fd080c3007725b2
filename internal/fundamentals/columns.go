package fundamentals

import "strings"

// ColumnPick is the resolved period-column selection for one table
type ColumnPick struct {
	Prior       int  // 확정 직전 연도 컬럼
	Target      int  // 추정치 컬럼 (없으면 Prior와 동일)
	Latest      int  // 최우측 = 최근 공시 분기 컬럼
	HasEstimate bool
}

// ColumnStrategy locates the prior-confirmed and forward-estimate
// period columns in a financial table header.
//
// 컬럼 휴리스틱은 테이블 레이아웃 의존적이라 전략 객체 뒤에 격리한다.
// 계산 로직을 건드리지 않고 교체할 수 있어야 한다.
type ColumnStrategy interface {
	Pick(columns []string) ColumnPick
}

// EstimateSuffix marks forward-estimate period columns ("2026.12(E)")
const EstimateSuffix = "(E)"

// AnnualFirstStrategy is the canonical layout heuristic: the source
// table lists four annual columns before quarterly columns.
//
//   - 첫 번째 (E) 컬럼이 추정치, 그 바로 왼쪽이 확정 직전 연도
//   - (E) 컬럼이 없으면 확정 컬럼은 index 3 (컬럼이 4개 미만이면 마지막)
type AnnualFirstStrategy struct{}

// Pick resolves column indices per the canonical heuristic
func (AnnualFirstStrategy) Pick(columns []string) ColumnPick {
	estIdx := -1
	for i, col := range columns {
		if strings.Contains(col, EstimateSuffix) {
			estIdx = i
			break
		}
	}

	last := len(columns) - 1
	if last < 0 {
		last = 0
	}

	var prior int
	switch {
	case estIdx > 0:
		prior = estIdx - 1
	case estIdx == 0:
		// 추정치가 첫 컬럼인 기형 테이블: 더 왼쪽이 없으므로 그대로 사용
		prior = 0
	case len(columns) >= 4:
		prior = 3
	default:
		prior = last
	}

	target := estIdx
	if target < 0 {
		target = prior
	}

	return ColumnPick{
		Prior:       prior,
		Target:      target,
		Latest:      last,
		HasEstimate: estIdx >= 0,
	}
}
