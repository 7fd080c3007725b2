package naver

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/wonny/valuescan/backend/internal/contracts"
)

// FinancialTable scrapes the 기업실적분석 table from the symbol's
// main page.
// ⭐ SSOT: 재무제표 테이블 호출은 이 함수에서만
//
// Best-effort 계약: 테이블이 없거나 구조가 달라도 에러 대신 빈
// 테이블이 나올 수 있고, 추출기가 전부 0으로 강등한다. 에러는
// 네트워크/HTTP 실패에만 쓴다.
func (c *Client) FinancialTable(ctx context.Context, code string) (*contracts.FinancialTable, error) {
	fullURL := fmt.Sprintf("%s/item/main.naver?code=%s", c.baseURL, code)

	body, err := c.fetchHTML(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	table, err := parseFinancialHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse financial table: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"code":    code,
		"columns": len(table.Columns),
		"rows":    len(table.Rows),
	}).Debug("Fetched financial table")
	return table, nil
}

// parseFinancialHTML extracts the financial statement table from the
// EUC-KR encoded item page.
func parseFinancialHTML(body []byte) (*contracts.FinancialTable, error) {
	// finance.naver.com 페이지는 EUC-KR. 라벨 매칭 전에 UTF-8로 변환
	decoded := transform.NewReader(bytes.NewReader(body), korean.EUCKR.NewDecoder())

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, err
	}

	table := &contracts.FinancialTable{}

	section := doc.Find("div.cop_analysis table").First()
	if section.Length() == 0 {
		// 재무 섹션 없음 (ETF, 신규상장 등): 빈 테이블로 강등
		return table, nil
	}

	// Period columns: 헤더 마지막 행의 th가 기간 라벨 (YYYY.MM, (E) 접미)
	headerRow := section.Find("thead tr").Last()
	headerRow.Find("th").Each(func(i int, th *goquery.Selection) {
		label := cleanCell(th.Text())
		if label != "" {
			table.Columns = append(table.Columns, label)
		}
	})

	// Line items: tbody 행의 th가 라벨, td가 기간별 값
	section.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		label := cleanCell(tr.Find("th").First().Text())
		if label == "" {
			return
		}

		var values []string
		tr.Find("td").Each(func(j int, td *goquery.Selection) {
			values = append(values, cleanCell(td.Text()))
		})

		table.Rows = append(table.Rows, contracts.FinancialRow{
			Label:  label,
			Values: values,
		})
	})

	return table, nil
}

// cleanCell collapses whitespace inside a scraped cell
func cleanCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
