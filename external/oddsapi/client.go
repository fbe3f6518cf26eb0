package oddsapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/pickstreak/pickstreak/internal/platform/logging"
	"github.com/pickstreak/pickstreak/internal/platform/resilience"
	"github.com/pickstreak/pickstreak/internal/usecase"
)

const (
	defaultBaseURL    = "https://api.the-odds-api.com/v4"
	oddsRegions       = "us"
	oddsMarket        = "h2h"
	oddsFormat        = "decimal"
	scoresDaysFrom    = "1"
	commenceTimeParam = "2006-01-02T15:04:05Z"
)

var apiKeyParamRegex = regexp.MustCompile(`apiKey=[^&\s"']+`)
var errOddsAPITransient = crerr.New("odds api transient failure")

// providerSportKeys maps our short sport keys to the provider's
// fully-qualified ones.
var providerSportKeys = map[string]string{
	"nba":   "basketball_nba",
	"nfl":   "americanfootball_nfl",
	"nhl":   "icehockey_nhl",
	"mlb":   "baseball_mlb",
	"ncaab": "basketball_ncaab",
	"ncaaf": "americanfootball_ncaaf",
	"epl":   "soccer_epl",
	"mls":   "soccer_usa_mls",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type eventEnvelope struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	CommenceTime string              `json:"commence_time"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	Bookmakers   []bookmakerEnvelope `json:"bookmakers"`
}

type bookmakerEnvelope struct {
	Key     string           `json:"key"`
	Markets []marketEnvelope `json:"markets"`
}

type marketEnvelope struct {
	Key      string            `json:"key"`
	Outcomes []outcomeEnvelope `json:"outcomes"`
}

type outcomeEnvelope struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type scoreEnvelope struct {
	ID        string               `json:"id"`
	SportKey  string               `json:"sport_key"`
	Completed bool                 `json:"completed"`
	HomeTeam  string               `json:"home_team"`
	AwayTeam  string               `json:"away_team"`
	Scores    []scoreEntryEnvelope `json:"scores"`
}

type scoreEntryEnvelope struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// FetchUpcomingEvents returns the sport's events commencing inside
// [from, to) together with head-to-head decimal odds when a bookmaker
// carries them.
func (c *Client) FetchUpcomingEvents(ctx context.Context, sport string, from, to time.Time) ([]usecase.ExternalEvent, error) {
	providerKey, err := resolveProviderSportKey(sport)
	if err != nil {
		return nil, err
	}

	path := "/sports/" + providerKey + "/odds"
	query := map[string]string{
		"regions":          oddsRegions,
		"markets":          oddsMarket,
		"oddsFormat":       oddsFormat,
		"commenceTimeFrom": from.UTC().Format(commenceTimeParam),
		"commenceTimeTo":   to.UTC().Format(commenceTimeParam),
	}

	var envelope []eventEnvelope
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch odds sport=%s: %w", sport, err)
	}

	out := make([]usecase.ExternalEvent, 0, len(envelope))
	for _, item := range envelope {
		if item.ID == "" {
			continue
		}
		commenceAt, err := parseProviderTime(item.CommenceTime)
		if err != nil {
			c.logger.WarnContext(ctx, "skip event with unparseable commence time", "sport", sport, "event_id", item.ID, "value", item.CommenceTime)
			continue
		}

		homeOdds, awayOdds := extractHeadToHeadOdds(item)
		out = append(out, usecase.ExternalEvent{
			ExternalID: item.ID,
			Sport:      sport,
			HomeTeam:   item.HomeTeam,
			AwayTeam:   item.AwayTeam,
			CommenceAt: commenceAt,
			HomeOdds:   homeOdds,
			AwayOdds:   awayOdds,
		})
	}

	return out, nil
}

// FetchScores returns recent score rows for the sport, covering live
// games and games completed within the provider's lookback window.
func (c *Client) FetchScores(ctx context.Context, sport string) ([]usecase.ExternalScore, error) {
	providerKey, err := resolveProviderSportKey(sport)
	if err != nil {
		return nil, err
	}

	path := "/sports/" + providerKey + "/scores"
	query := map[string]string{
		"daysFrom": scoresDaysFrom,
	}

	var envelope []scoreEnvelope
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch scores sport=%s: %w", sport, err)
	}

	out := make([]usecase.ExternalScore, 0, len(envelope))
	for _, item := range envelope {
		if item.ID == "" {
			continue
		}

		score := usecase.ExternalScore{
			ExternalID: item.ID,
			Completed:  item.Completed,
			HasScores:  len(item.Scores) > 0,
		}
		for _, entry := range item.Scores {
			value, err := strconv.Atoi(strings.TrimSpace(entry.Score))
			if err != nil {
				continue
			}
			points := value
			switch entry.Name {
			case item.HomeTeam:
				score.HomeScore = &points
			case item.AwayTeam:
				score.AwayScore = &points
			}
		}
		out = append(out, score)
	}

	return out, nil
}

func resolveProviderSportKey(sport string) (string, error) {
	key, ok := providerSportKeys[strings.ToLower(strings.TrimSpace(sport))]
	if !ok {
		return "", crerr.Newf("unsupported sport %q", sport)
	}
	return key, nil
}

func extractHeadToHeadOdds(item eventEnvelope) (float64, float64) {
	for _, bookmaker := range item.Bookmakers {
		for _, market := range bookmaker.Markets {
			if market.Key != oddsMarket {
				continue
			}
			var home, away float64
			for _, outcome := range market.Outcomes {
				switch outcome.Name {
				case item.HomeTeam:
					home = outcome.Price
				case item.AwayTeam:
					away = outcome.Price
				}
			}
			if home > 0 && away > 0 {
				return home, away
			}
		}
	}
	return 0, 0
}

func parseProviderTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "odds api circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: odds provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("apiKey", c.apiKey)

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	flightKey := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(flightKey, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isOddsAPICircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errOddsAPITransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errOddsAPITransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				if isRetryableStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: provider status=%d body=%s", errOddsAPITransient, resp.StatusCode, abbreviateBody(raw))
				} else {
					return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "odds api request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "apiKey=REDACTED")
}

func redactAPIURL(fullURL string) string {
	return apiKeyParamRegex.ReplaceAllString(fullURL, "apiKey=REDACTED")
}

func abbreviateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 512 {
		return body[:512] + "..."
	}
	return body
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func isOddsAPICircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errOddsAPITransient)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
