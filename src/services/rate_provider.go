package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Response shapes of the external conversion-rate API.
type providerRatesResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

type providerQuotaResponse struct {
	RequestsLeft int `json:"requests_left"`
}

type httpRateProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewHTTPRateProvider creates the client for the external rate API. Every
// call is bounded by the configured timeout; a timed-out refresh falls back
// to the stale-serve policy upstream.
func NewHTTPRateProvider(baseURL, apiKey string, timeout time.Duration) RateProvider {
	return &httpRateProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (p *httpRateProvider) FetchRates(ctx context.Context, baseCurrency string) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", p.baseURL, p.apiKey, baseCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call rate provider for base %s: %w", baseCurrency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rate provider returned non-OK status %d for base %s. Body: %s",
			resp.StatusCode, baseCurrency, string(bodyBytes))
	}

	var ratesData providerRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&ratesData); err != nil {
		return nil, fmt.Errorf("failed to decode rate provider response for base %s: %w", baseCurrency, err)
	}
	if len(ratesData.ConversionRates) == 0 {
		return nil, fmt.Errorf("rate provider returned an empty conversion table for base %s", baseCurrency)
	}

	rates := make(map[string]decimal.Decimal, len(ratesData.ConversionRates))
	for code, value := range ratesData.ConversionRates {
		rates[normalizeCurrency(code)] = decimal.NewFromFloat(value)
	}
	return rates, nil
}

func (p *httpRateProvider) RemainingQuota(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/%s/quota", p.baseURL, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call rate provider quota endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate provider quota endpoint returned non-OK status %d", resp.StatusCode)
	}

	var quotaData providerQuotaResponse
	if err := json.NewDecoder(resp.Body).Decode(&quotaData); err != nil {
		return 0, fmt.Errorf("failed to decode rate provider quota response: %w", err)
	}
	return quotaData.RequestsLeft, nil
}
