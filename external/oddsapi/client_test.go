package oddsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pickstreak/pickstreak/internal/platform/logging"
	"github.com/pickstreak/pickstreak/internal/platform/resilience"
	"github.com/pickstreak/pickstreak/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 3,
			OpenTimeout:      time.Second,
			HalfOpenMaxReq:   1,
		},
	})
}

func TestFetchUpcomingEvents_ParsesOddsAndWindow(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports/basketball_nba/odds" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("apiKey") != "test-key" {
			t.Errorf("missing apiKey query param")
		}
		if r.URL.Query().Get("markets") != "h2h" {
			t.Errorf("unexpected markets param: %s", r.URL.Query().Get("markets"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "ev-1",
				"sport_key": "basketball_nba",
				"commence_time": "2026-03-14T23:00:00Z",
				"home_team": "Boston Celtics",
				"away_team": "New York Knicks",
				"bookmakers": [
					{
						"key": "draftkings",
						"markets": [
							{
								"key": "h2h",
								"outcomes": [
									{"name": "Boston Celtics", "price": 1.65},
									{"name": "New York Knicks", "price": 2.3}
								]
							}
						]
					}
				]
			},
			{
				"id": "ev-2",
				"sport_key": "basketball_nba",
				"commence_time": "not-a-time",
				"home_team": "A",
				"away_team": "B"
			}
		]`))
	})

	from := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	events, err := client.FetchUpcomingEvents(context.Background(), "nba", from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("fetch upcoming events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected the unparseable event dropped, got %d events", len(events))
	}

	event := events[0]
	if event.ExternalID != "ev-1" || event.Sport != "nba" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.HomeOdds != 1.65 || event.AwayOdds != 2.3 {
		t.Fatalf("unexpected odds: home=%f away=%f", event.HomeOdds, event.AwayOdds)
	}
	if !event.CommenceAt.Equal(time.Date(2026, time.March, 14, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected commence time: %s", event.CommenceAt)
	}
}

func TestFetchScores_MapsTeamsToSides(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports/icehockey_nhl/scores" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "ev-1",
				"sport_key": "icehockey_nhl",
				"completed": true,
				"home_team": "Bruins",
				"away_team": "Rangers",
				"scores": [
					{"name": "Bruins", "score": "4"},
					{"name": "Rangers", "score": "2"}
				]
			},
			{
				"id": "ev-2",
				"sport_key": "icehockey_nhl",
				"completed": false,
				"home_team": "Wild",
				"away_team": "Stars",
				"scores": []
			}
		]`))
	})

	scores, err := client.FetchScores(context.Background(), "nhl")
	if err != nil {
		t.Fatalf("fetch scores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("unexpected score count: %d", len(scores))
	}

	final := scores[0]
	if !final.Completed || !final.HasScores {
		t.Fatalf("unexpected final flags: %+v", final)
	}
	if final.HomeScore == nil || *final.HomeScore != 4 {
		t.Fatalf("unexpected home score: %+v", final.HomeScore)
	}
	if final.AwayScore == nil || *final.AwayScore != 2 {
		t.Fatalf("unexpected away score: %+v", final.AwayScore)
	}

	pending := scores[1]
	if pending.Completed || pending.HasScores {
		t.Fatalf("unexpected pending flags: %+v", pending)
	}
}

func TestFetchScores_UnsupportedSport(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if _, err := client.FetchScores(context.Background(), "curling"); err == nil {
		t.Fatalf("expected error for unsupported sport")
	}
}

func TestDoJSON_NonRetryableStatusFailsFast(t *testing.T) {
	t.Parallel()

	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	})
	client.maxRetries = 2

	_, err := client.FetchScores(context.Background(), "nba")
	if err == nil {
		t.Fatalf("expected error for 401 response")
	}
	if requests != 1 {
		t.Fatalf("401 must not retry, got %d requests", requests)
	}
}

func TestCircuitBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		if _, err := client.FetchScores(context.Background(), "nba"); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}
	served := requests

	_, err := client.FetchScores(context.Background(), "nba")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected circuit rejection, got %v", err)
	}
	if requests != served {
		t.Fatalf("open circuit must not reach the provider, got %d extra requests", requests-served)
	}
}

func TestExtractHeadToHeadOdds_SkipsIncompleteMarkets(t *testing.T) {
	t.Parallel()

	item := eventEnvelope{
		HomeTeam: "Home",
		AwayTeam: "Away",
		Bookmakers: []bookmakerEnvelope{
			{
				Key: "bookie-1",
				Markets: []marketEnvelope{
					{Key: "spreads", Outcomes: []outcomeEnvelope{{Name: "Home", Price: 1.9}, {Name: "Away", Price: 1.9}}},
					{Key: "h2h", Outcomes: []outcomeEnvelope{{Name: "Home", Price: 2.1}}},
				},
			},
			{
				Key: "bookie-2",
				Markets: []marketEnvelope{
					{Key: "h2h", Outcomes: []outcomeEnvelope{{Name: "Home", Price: 1.8}, {Name: "Away", Price: 2.05}}},
				},
			},
		},
	}

	home, away := extractHeadToHeadOdds(item)
	if home != 1.8 || away != 2.05 {
		t.Fatalf("expected odds from the first complete h2h market, got home=%f away=%f", home, away)
	}

	home, away = extractHeadToHeadOdds(eventEnvelope{HomeTeam: "Home", AwayTeam: "Away"})
	if home != 0 || away != 0 {
		t.Fatalf("expected zero odds without bookmakers, got home=%f away=%f", home, away)
	}
}

func TestSanitizeSensitiveText_RedactsAPIKey(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`Get "https://api.example.com/v4/sports?apiKey=secret-123": dial timeout`, "secret-123")
	if got != `Get "https://api.example.com/v4/sports?apiKey=REDACTED": dial timeout` {
		t.Fatalf("unexpected sanitized text: %q", got)
	}

	got = redactAPIURL("https://api.example.com/v4/sports?apiKey=secret-123&daysFrom=1")
	if got != "https://api.example.com/v4/sports?apiKey=REDACTED&daysFrom=1" {
		t.Fatalf("unexpected redacted url: %q", got)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	retryable := []int{http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway}
	for _, status := range retryable {
		if !isRetryableStatus(status) {
			t.Fatalf("expected status %d retryable", status)
		}
	}

	final := []int{http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound}
	for _, status := range final {
		if isRetryableStatus(status) {
			t.Fatalf("expected status %d not retryable", status)
		}
	}
}
