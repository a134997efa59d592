package lunarcrush

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"selene/internal/adapters/config"
	redisclient "selene/internal/adapters/redis"
	"selene/internal/domain/signal"
	"selene/internal/metrics"
	"selene/pkg/errors"
	"selene/pkg/logger"
)

const coinsListCacheKey = "lunarcrush:coins_list"

// Client fetches normalized social metrics from the LunarCrush public API.
// Metrics for one symbol combine two independent endpoints: the ranked
// coins list (alt_rank, galaxy_score) and the per-symbol topic lookup
// (posts, interactions, contributors).
type Client struct {
	cfg        config.LunarCrushConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *redisclient.Client
	log        *logger.Logger
}

// NewClient creates a LunarCrush API client. cache may be nil to disable
// coins-list caching.
func NewClient(cfg config.LunarCrushConfig, cache *redisclient.Client) *Client {
	rps := float64(cfg.RateLimit) / 60.0
	burst := cfg.RateLimit / 10
	if burst < 1 {
		burst = 1
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		cache:      cache,
		log:        logger.Get().With("component", "lunarcrush"),
	}
}

type coinsListResponse struct {
	Data []coinEntry `json:"data"`
}

type coinEntry struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	AltRank     int     `json:"alt_rank"`
	GalaxyScore float64 `json:"galaxy_score"`
}

type topicResponse struct {
	Data topicEntry `json:"data"`
}

type topicEntry struct {
	NumPosts        int64 `json:"num_posts"`
	Interactions24h int64 `json:"interactions_24h"`
	NumContributors int64 `json:"num_contributors"`
}

// rankData is the contribution of the ranked-list lookup
type rankData struct {
	altRank     int
	galaxyScore float64
}

// Fetch retrieves social metrics for one symbol. The two upstream
// sub-queries run concurrently. If one fails its contribution degrades
// to sentinel defaults; if both fail there is no usable data and the
// whole fetch fails.
func (c *Client) Fetch(ctx context.Context, symbol string) (signal.SymbolMetrics, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var (
		wg       sync.WaitGroup
		rank     rankData
		topic    topicEntry
		rankErr  error
		topicErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		rank, rankErr = c.fetchRankData(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		topic, topicErr = c.fetchTopicData(ctx, symbol)
	}()
	wg.Wait()

	if rankErr != nil && topicErr != nil {
		return signal.SymbolMetrics{}, errors.Wrapf(errors.ErrNoMetrics,
			"%s: rank lookup: %v; topic lookup: %v", symbol, rankErr, topicErr)
	}

	if rankErr != nil {
		c.log.Warnf("Rank lookup failed for %s, using sentinel defaults: %v", symbol, rankErr)
		rank = rankData{altRank: signal.AltRankUnknown, galaxyScore: 0}
	}
	if topicErr != nil {
		c.log.Warnf("Topic lookup failed for %s, using zero counts: %v", symbol, topicErr)
		topic = topicEntry{}
	}

	return signal.SymbolMetrics{
		Symbol:       symbol,
		Mentions:     topic.NumPosts,
		Interactions: topic.Interactions24h,
		Creators:     topic.NumContributors,
		AltRank:      rank.altRank,
		GalaxyScore:  rank.galaxyScore,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// fetchRankData finds the symbol in the ranked coins list.
// A symbol absent from the list is not an error; it degrades to the
// sentinel rank, matching how a brand-new asset appears upstream.
func (c *Client) fetchRankData(ctx context.Context, symbol string) (rankData, error) {
	entries, err := c.coinsList(ctx)
	if err != nil {
		return rankData{}, err
	}

	entry := findCoin(entries, symbol)
	if entry == nil {
		c.log.Warnf("Symbol %s not found in coins list", symbol)
		return rankData{altRank: signal.AltRankUnknown, galaxyScore: 0}, nil
	}

	return rankData{altRank: entry.AltRank, galaxyScore: entry.GalaxyScore}, nil
}

// findCoin matches a symbol case-insensitively. BTC additionally matches
// an entry listed under the full asset name when the ticker is absent.
func findCoin(entries []coinEntry, symbol string) *coinEntry {
	for i := range entries {
		if strings.EqualFold(entries[i].Symbol, symbol) {
			return &entries[i]
		}
	}

	if symbol == "BTC" {
		for i := range entries {
			if strings.EqualFold(entries[i].Symbol, "bitcoin") ||
				strings.Contains(strings.ToLower(entries[i].Name), "bitcoin") {
				return &entries[i]
			}
		}
	}

	return nil
}

// coinsList returns the ranked coins list, served from the Redis cache
// when fresh enough
func (c *Client) coinsList(ctx context.Context) ([]coinEntry, error) {
	if c.cache != nil {
		var cached []coinEntry
		if err := c.cache.GetJSON(ctx, coinsListCacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	var resp coinsListResponse
	if err := c.get(ctx, "/coins/list/v1?limit=500&sort=alt_rank", &resp); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, coinsListCacheKey, resp.Data, c.cfg.CoinsListCacheTTL); err != nil {
			c.log.Warnf("Failed to cache coins list: %v", err)
		}
	}

	return resp.Data, nil
}

// fetchTopicData fetches per-symbol post/interaction/contributor counts
func (c *Client) fetchTopicData(ctx context.Context, symbol string) (topicEntry, error) {
	var resp topicResponse
	if err := c.get(ctx, fmt.Sprintf("/topic/%s/v1", strings.ToLower(symbol)), &resp); err != nil {
		return topicEntry{}, err
	}
	return resp.Data, nil
}

// get performs an authenticated GET and decodes the JSON response.
// Upstream status codes map to the operator-facing error taxonomy.
func (c *Client) get(ctx context.Context, endpoint string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "lunarcrush rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "create API request")
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			metrics.UpstreamAPICalls.WithLabelValues(endpoint, "error").Inc()
			return errors.Wrapf(errors.ErrUpstreamCredentials, "check LUNARCRUSH_API_KEY")
		case resp.StatusCode == http.StatusTooManyRequests:
			metrics.UpstreamAPICalls.WithLabelValues(endpoint, "rate_limited").Inc()
			return errors.Wrap(errors.ErrUpstreamRateLimit, "lunarcrush")
		case resp.StatusCode >= 500:
			metrics.UpstreamAPICalls.WithLabelValues(endpoint, "error").Inc()
			return errors.Wrapf(errors.ErrUpstreamUnavailable, "status %d", resp.StatusCode)
		default:
			metrics.UpstreamAPICalls.WithLabelValues(endpoint, "error").Inc()
			return errors.Wrapf(errors.ErrUpstream, "status %d: %s", resp.StatusCode, string(body))
		}
	}

	metrics.UpstreamAPICalls.WithLabelValues(endpoint, "success").Inc()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decode API response")
	}

	return nil
}
