package naver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/numeric"
)

// listingMaxPages: KOSPI/KOSDAQ 각각 ~1000 종목, 페이지당 100
const listingMaxPages = 15

// domesticStockItem is one row of the domestic market-cap ranking API
type domesticStockItem struct {
	ItemCode       string `json:"itemcode"`
	ItemName       string `json:"itemname"`
	NowVal         string `json:"nowVal"`         // 현재가
	MarketSum      string `json:"marketSum"`      // 시가총액 (억)
	ListedStockCnt string `json:"listedStockCnt"` // 상장주식수
}

// worldStockPage is one page of the worldstock market-value API
type worldStockPage struct {
	Stocks []worldStockItem `json:"stocks"`
}

type worldStockItem struct {
	SymbolCode  string `json:"symbolCode"`
	StockName   string `json:"stockName"`
	ClosePrice  string `json:"closePrice"`
	MarketValue string `json:"marketValue"`
	ShareCount  string `json:"shareCount"`
}

// ListSymbols fetches the full listing for a market, paginated.
// ⭐ SSOT: 시장 상장 목록 호출은 이 함수에서만
//
// 페이지 단위 실패는 경고만 남기고 건너뛴다. 부분 유니버스가
// 빈 유니버스보다 낫다.
func (c *Client) ListSymbols(ctx context.Context, market contracts.Market) ([]contracts.Listing, error) {
	if market.IsDomestic() {
		return c.listDomestic(ctx, market)
	}
	return c.listWorld(ctx, market)
}

// listDomestic pages through the KOSPI/KOSDAQ ranking API
func (c *Client) listDomestic(ctx context.Context, market contracts.Market) ([]contracts.Listing, error) {
	var listings []contracts.Listing

	for page := 1; page <= listingMaxPages; page++ {
		url := fmt.Sprintf(
			"%s/api/domestic/market/stock/default?orderType=marketSum&marketType=%s&page=%d&pageSize=100",
			c.apiBaseURL, market, page,
		)

		body, err := c.fetchAPI(ctx, url)
		if err != nil {
			c.logger.WithError(err).WithField("page", page).Warn("Failed to fetch listing page")
			continue
		}

		var items []domesticStockItem
		if err := json.Unmarshal(body, &items); err != nil {
			c.logger.WithError(err).WithField("page", page).Warn("Failed to decode listing page")
			continue
		}

		if len(items) == 0 {
			break
		}

		for _, item := range items {
			listings = append(listings, contracts.Listing{
				Code:              item.ItemCode,
				Name:              item.ItemName,
				Market:            market,
				Close:             numeric.ParseFloat(item.NowVal),
				MarketCap:         numeric.ParseFloat(item.MarketSum),
				SharesOutstanding: numeric.ParseFloat(item.ListedStockCnt),
			})
		}
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("empty listing for market %s", market)
	}

	c.logger.WithFields(map[string]interface{}{
		"market": market,
		"count":  len(listings),
	}).Debug("Fetched listing")
	return listings, nil
}

// listWorld pages through the worldstock market-value API (NASDAQ)
func (c *Client) listWorld(ctx context.Context, market contracts.Market) ([]contracts.Listing, error) {
	var listings []contracts.Listing

	for page := 1; page <= listingMaxPages; page++ {
		url := fmt.Sprintf(
			"https://api.stock.naver.com/stock/exchange/%s/marketValue?page=%d&pageSize=100",
			market, page,
		)

		body, err := c.fetchAPI(ctx, url)
		if err != nil {
			c.logger.WithError(err).WithField("page", page).Warn("Failed to fetch world listing page")
			continue
		}

		var pageData worldStockPage
		if err := json.Unmarshal(body, &pageData); err != nil {
			c.logger.WithError(err).WithField("page", page).Warn("Failed to decode world listing page")
			continue
		}

		if len(pageData.Stocks) == 0 {
			break
		}

		for _, item := range pageData.Stocks {
			listings = append(listings, contracts.Listing{
				Code:              item.SymbolCode,
				Name:              item.StockName,
				Market:            market,
				Close:             numeric.ParseFloat(item.ClosePrice),
				MarketCap:         numeric.ParseFloat(item.MarketValue),
				SharesOutstanding: numeric.ParseFloat(item.ShareCount),
			})
		}
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("empty listing for market %s", market)
	}

	c.logger.WithFields(map[string]interface{}{
		"market": market,
		"count":  len(listings),
	}).Debug("Fetched world listing")
	return listings, nil
}
