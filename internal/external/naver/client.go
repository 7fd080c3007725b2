// Package naver implements the market listing, price series,
// fundamentals and base-rate sources on top of Naver Finance.
package naver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wonny/valuescan/backend/pkg/config"
	"github.com/wonny/valuescan/backend/pkg/httputil"
	"github.com/wonny/valuescan/backend/pkg/logger"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
//
// HTML 페이지와 JSON API는 레이트 리밋 버킷이 달라서 클라이언트를
// 나눠 받는다. 재시도 정책은 호출자가 가진다 (가격 시계열만
// 오케스트레이터가 재시도).
type Client struct {
	htmlClient *httputil.Client
	apiClient  *httputil.Client
	logger     *logger.Logger

	baseURL    string // finance.naver.com (HTML)
	apiBaseURL string // stock.naver.com (JSON)
	chartURL   string // fchart.stock.naver.com
}

// NewClient creates a new Naver Finance client
func NewClient(cfg *config.Config, htmlClient, apiClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		htmlClient: htmlClient,
		apiClient:  apiClient,
		logger:     log.WithField("module", "naver"),
		baseURL:    cfg.Naver.BaseURL,
		apiBaseURL: cfg.Naver.APIBaseURL,
		chartURL:   cfg.Naver.ChartURL,
	}
}

// fetchHTML performs a GET against a finance.naver.com HTML page
func (c *Client) fetchHTML(ctx context.Context, fullURL string) ([]byte, error) {
	return c.fetch(ctx, c.htmlClient, fullURL)
}

// fetchAPI performs a GET against a JSON API endpoint
func (c *Client) fetchAPI(ctx context.Context, fullURL string) ([]byte, error) {
	return c.fetch(ctx, c.apiClient, fullURL)
}

func (c *Client) fetch(ctx context.Context, hc *httputil.Client, fullURL string) ([]byte, error) {
	resp, err := hc.GetWithReferer(ctx, fullURL, c.baseURL+"/")
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return httputil.ReadBody(resp)
}
