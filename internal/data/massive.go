// Package data provides market data provider implementations.
//
// This file contains a Massive-backed Provider implementation that retrieves
// spot prices, option chain snapshots, and treasury yields via Massive HTTP
// APIs.
//
// Design notes:
//   - Uses raw HTTP calls instead of the official Massive SDK
//   - Supports pagination and rate-limiting retries
//   - Logging is intentionally verbose at Debug/Trace levels for diagnostics
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/contactkeval/iv-surface/internal/logger"
	"github.com/contactkeval/iv-surface/internal/pricing"
)

// treasuryTicker is the 13-week T-bill index used for the risk-free rate.
const treasuryTicker = "I:IRX"

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider
}

// massiveChainEntry represents a single contract in Massive's option chain
// snapshot response.
type massiveChainEntry struct {
	Details struct {
		ContractType string  `json:"contract_type"`
		ExpiryDate   string  `json:"expiration_date"`
		StrikePrice  float64 `json:"strike_price"`
		Ticker       string  `json:"ticker"`
	} `json:"details"`
	LastQuote struct {
		Bid      float64 `json:"bid"`
		Ask      float64 `json:"ask"`
		Midpoint float64 `json:"midpoint"`
	} `json:"last_quote"`
	Day struct {
		Volume float64 `json:"volume"`
	} `json:"day"`
	OpenInterest float64 `json:"open_interest"`
}

// massiveChainResp models the paginated chain snapshot response.
type massiveChainResp struct {
	Results   []massiveChainEntry `json:"results"`
	Status    string              `json:"status"`
	RequestID string              `json:"request_id"`
	NextURL   string              `json:"next_url"`
}

// NewMassiveDataProvider constructs a Massive-backed data provider.
//
// It initializes an HTTP client with sensible defaults for:
//   - timeouts
//   - connection pooling
//   - HTTP/2 support
//   - gzip decompression
//
// Parameters:
//   - apiKey: Massive API key for authentication
//
// Returns:
//   - *massiveDataProvider: initialized provider instance
func NewMassiveDataProvider(apiKey string) *massiveDataProvider {
	logger.Infof("initializing Massive data provider")

	return &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must be false to enable gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL: "https://api.massive.com",
	}
}

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetSpotPrice returns the latest close for the underlying via the
// previous-day aggregate endpoint.
//
// Parameters:
//   - ticker: underlying symbol (e.g., "NVDA")
//
// Returns:
//   - float64: previous close price
//   - error: if the request fails or no aggregate is available
func (massiveDataProv *massiveDataProvider) GetSpotPrice(ticker string) (float64, error) {
	logger.Debugf("spot price request: %s", ticker)

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s",
		massiveDataProv.BaseURL,
		ticker,
		massiveDataProv.APIKey,
	)

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", massiveDataProv.APIKey)

	resp, err := massiveDataProv.processGetRequest(req)
	if err != nil {
		return 0, fmt.Errorf("massive api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf(
			"massive prev-close status=%d body=%s",
			resp.StatusCode,
			string(bodyBytes),
		)
	}

	var body struct {
		Ticker  string `json:"ticker"`
		Results []struct {
			Close     float64 `json:"c"`
			Timestamp int64   `json:"t"`
		} `json:"results"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("parsing massive response: %w", err)
	}
	if len(body.Results) == 0 {
		return 0, fmt.Errorf("no prev-close aggregate for %s", ticker)
	}

	logger.Tracef("spot resolved %s=%.2f", ticker, body.Results[0].Close)
	return body.Results[0].Close, nil
}

// GetOptionChain retrieves the full option chain snapshot for the
// underlying and converts each contract into an OptionQuote.
//
// Parameters:
//   - ticker: underlying symbol
//   - spot: current spot price used for mid-price and moneyness fields
//
// Returns:
//   - []OptionQuote: one row per contract with a usable quote
//   - error: if request or decoding fails
func (massiveDataProv *massiveDataProvider) GetOptionChain(
	ticker string,
	spot float64,
) ([]OptionQuote, error) {

	logger.Infof("fetching option chain snapshot for %s", ticker)

	out := []OptionQuote{}
	now := time.Now().UTC()

	// Build base URL
	u, err := url.Parse(massiveDataProv.BaseURL + "/v3/snapshot/options/" + ticker)
	if err != nil {
		return nil, err
	}

	query := u.Query()
	query.Set("limit", "250")
	query.Set("apiKey", massiveDataProv.APIKey)
	u.RawQuery = query.Encode()
	reqURL := u.String()

	// Handle pagination
	for reqURL != "" {
		logger.Debugf("chain request URL: %s", reqURL)

		req, err := http.NewRequest("GET", reqURL, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "massive-client/1.0")

		resp, err := massiveDataProv.processGetRequest(req)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if len(body) == 0 {
			return nil, fmt.Errorf("empty response body")
		}

		if resp.StatusCode != http.StatusOK {
			var dbg struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(body, &dbg)

			logger.Errorf(
				"massive chain API error status=%d message=%s",
				resp.StatusCode,
				dbg.Message,
			)
			return nil, fmt.Errorf(
				"massive returned status %d: %s",
				resp.StatusCode,
				dbg.Message,
			)
		}

		var massiveResp massiveChainResp
		if err := json.Unmarshal(body, &massiveResp); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		logger.Tracef("received %d chain entries", len(massiveResp.Results))

		for _, result := range massiveResp.Results {
			expiry, err := time.Parse("2006-01-02", result.Details.ExpiryDate)
			if err != nil {
				continue // skip malformed expiry dates
			}

			optType := pricing.Call
			if result.Details.ContractType == "put" {
				optType = pricing.Put
			}

			out = append(out, NewQuote(
				ticker,
				optType,
				result.Details.StrikePrice,
				expiry,
				spot,
				result.LastQuote.Bid,
				result.LastQuote.Ask,
				result.Day.Volume,
				result.OpenInterest,
				now,
			))
		}

		reqURL = massiveResp.NextURL
	}

	logger.Infof("chain for %s: %d contracts", ticker, len(out))
	return out, nil
}

// GetRiskFreeRate returns the current 13-week treasury yield as a decimal
// (e.g. 0.045 for 4.5%), using the previous close of the T-bill index.
// Callers typically fall back to a configured default when this fails.
func (massiveDataProv *massiveDataProvider) GetRiskFreeRate() (float64, error) {
	yield, err := massiveDataProv.GetSpotPrice(treasuryTicker)
	if err != nil {
		if massiveDataProv.secondary != nil {
			logger.Tracef("delegating risk-free rate to secondary provider")
			return massiveDataProv.secondary.GetRiskFreeRate()
		}
		return 0, fmt.Errorf("fetch treasury yield: %w", err)
	}
	// Index quotes in percent.
	return yield / 100, nil
}

// processGetRequest executes an HTTP GET request with rate-limit handling.
//
// Behavior:
//   - Retries indefinitely on HTTP 429
//   - Sleeps until the next minute boundary
//   - Returns immediately on success (<400)
//   - Returns an error for other status codes
func (massiveDataProv *massiveDataProvider) processGetRequest(
	req *http.Request,
) (*http.Response, error) {

	for {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		// Success
		if resp.StatusCode < 400 {
			return resp, nil
		}

		// Handle per-minute rate limit (commonly 429)
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			// Sleep until the next minute boundary
			now := time.Now()
			sleepDuration := time.Until(
				now.Truncate(time.Minute).Add(time.Minute),
			)

			logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
			time.Sleep(sleepDuration)
			continue
		}

		return resp, fmt.Errorf(
			"unexpected status code: %d",
			resp.StatusCode,
		)
	}
}
