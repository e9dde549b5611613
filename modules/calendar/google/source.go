// Package google adapts Google Calendar's events API to an EventSource.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"smartschedule/core/config"
	"smartschedule/core/logger"
	"smartschedule/modules/calendar/entity"
	"smartschedule/modules/calendar/source"
	matching "smartschedule/modules/matching/entity"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

const (
	defaultBaseURL = "https://www.googleapis.com/calendar/v3"
	maxPages       = 10
)

// ConnectionStore is the part of the calendar repository the adapter needs.
type ConnectionStore interface {
	GetConnectionByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.CalendarConnection, error)
	UpdateConnectionToken(ctx context.Context, conn *entity.CalendarConnection) error
}

type Option func(*Source)

// WithBaseURL points the adapter at another API root. Tests use an httptest server.
func WithBaseURL(u string) Option {
	return func(s *Source) { s.baseURL = u }
}

// WithRetry sets how many times a transient failure is retried and the first wait.
func WithRetry(maxRetries uint64, initial time.Duration) Option {
	return func(s *Source) {
		s.maxRetries = maxRetries
		s.initialInterval = initial
	}
}

type Source struct {
	oauth           *oauth2.Config
	store           ConnectionStore
	baseURL         string
	maxRetries      uint64
	initialInterval time.Duration
}

func NewSource(cfg config.GoogleAPIConfig, store ConnectionStore, opts ...Option) *Source {
	s := &Source{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     googleOAuth.Endpoint,
		},
		store:           store,
		baseURL:         defaultBaseURL,
		maxRetries:      3,
		initialInterval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string { return entity.ProviderGoogle }

// ListEvents reads the primary calendar, refreshing the OAuth token when it
// expired and persisting the new one.
func (s *Source) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]matching.CalendarEvent, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("user id %q: %w", userID, err)
	}
	conn, err := s.store.GetConnectionByUserAndProvider(ctx, id, entity.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.AccessToken == "" {
		return nil, source.ErrNotConnected
	}

	ts := s.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.TokenExpiresAt,
		TokenType:    "Bearer",
	})
	client := oauth2.NewClient(ctx, ts)

	var events []matching.CalendarEvent
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		resp, err := s.fetchPage(ctx, client, from, to, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			if e, ok := item.toEvent(s.Name()); ok {
				events = append(events, e)
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	s.persistToken(ctx, conn, ts)
	return events, nil
}

func (s *Source) fetchPage(ctx context.Context, client *http.Client, from, to time.Time, pageToken string) (*eventsResponse, error) {
	params := url.Values{}
	params.Add("singleEvents", "true")
	params.Add("orderBy", "startTime")
	params.Add("timeMin", from.UTC().Format(time.RFC3339))
	params.Add("timeMax", to.UTC().Format(time.RFC3339))
	if pageToken != "" {
		params.Add("pageToken", pageToken)
	}
	apiURL := s.baseURL + "/calendars/primary/events?" + params.Encode()

	var out eventsResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("google calendar API error: %d", resp.StatusCode)
		default:
			logger.Error("GoogleSource:fetchPage:APIError", "status", resp.StatusCode, "body", string(body))
			return backoff.Permanent(fmt.Errorf("google calendar API error: %d", resp.StatusCode))
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode events: %w", err))
		}
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.initialInterval
	exp.Multiplier = 2
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, s.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		logger.Warn("GoogleSource:fetchPage:Retry", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return &out, nil
}

// persistToken saves a refreshed access token. Failure only costs a refresh next time.
func (s *Source) persistToken(ctx context.Context, conn *entity.CalendarConnection, ts oauth2.TokenSource) {
	tok, err := ts.Token()
	if err != nil || tok.AccessToken == conn.AccessToken {
		return
	}
	conn.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		conn.RefreshToken = tok.RefreshToken
	}
	conn.TokenExpiresAt = tok.Expiry
	if err := s.store.UpdateConnectionToken(ctx, conn); err != nil {
		logger.Error("GoogleSource:persistToken:UpdateConnectionToken:Error", "error", err)
	}
}
