package sampledata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/model"
)

// Client talks to a running service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks the service is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// PublishStandings submits results for a full recompute.
func (c *Client) PublishStandings(ctx context.Context, results []model.ParticipantResult, asOf time.Time) (model.Publication, error) {
	body := map[string]any{"results": results}
	if !asOf.IsZero() {
		body["asOf"] = asOf.Format(time.RFC3339)
	}
	var out model.Publication
	err := c.do(ctx, http.MethodPost, "/standings", body, &out)
	return out, err
}

// Leaderboard fetches the first limit published entries.
func (c *Client) Leaderboard(ctx context.Context, limit int) (model.Standings, error) {
	var out model.Standings
	err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// Rank fetches one published entry.
func (c *Client) Rank(ctx context.Context, personID string) (model.RankingListEntry, error) {
	var out model.RankingListEntry
	err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(personID), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}
	return nil
}

// VerifyLeaderboard checks that entries are sorted by total, that ranks follow
// competition ranking, and that every total equals its bucket sum.
func VerifyLeaderboard(entries []model.RankingListEntry) error {
	for i := range entries {
		e := &entries[i]
		sum := 0.0
		for _, b := range e.BucketBreakdown {
			sum += b.BucketTotal
		}
		if len(e.BucketBreakdown) > 0 && sum != e.TotalPoints {
			return fmt.Errorf("%s: total %.3f differs from bucket sum %.3f", e.PersonID, e.TotalPoints, sum)
		}
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("first entry has rank %d", e.Rank)
			}
			continue
		}
		prev := &entries[i-1]
		switch {
		case e.TotalPoints > prev.TotalPoints:
			return fmt.Errorf("%s (%.3f) listed below %s (%.3f)", e.PersonID, e.TotalPoints, prev.PersonID, prev.TotalPoints)
		case e.Rank < prev.Rank:
			return fmt.Errorf("%s has rank %d after rank %d", e.PersonID, e.Rank, prev.Rank)
		case e.Rank != prev.Rank && e.Rank != i+1:
			return fmt.Errorf("%s has rank %d, want %d", e.PersonID, e.Rank, i+1)
		}
	}
	return nil
}
