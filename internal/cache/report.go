// internal/cache/report.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/domain"
)

const (
	reportKeyPrefix  = "report"
	scanBatchSize    = 100
	defaultReportTTL = time.Minute
)

// ReportCache memoizes built reports keyed by dataset identity plus a
// hash of the filter criteria and top-N. It sits outside the engine's
// correctness contract: a miss simply recomputes.
type ReportCache interface {
	GetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int) (*domain.Report, bool, error)
	SetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int, rep *domain.Report) error
	InvalidateDataset(ctx context.Context, datasetID string) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.ReportTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultReportTTL
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

// NewRedisReportCache wraps an existing client, mainly for tests.
func NewRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &redisReportCache{client: client, ttl: ttl}
}

func (c *redisReportCache) GetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int) (*domain.Report, bool, error) {
	key := buildReportKey(datasetID, criteria, topN)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rep domain.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &rep, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int, rep *domain.Report) error {
	key := buildReportKey(datasetID, criteria, topN)
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisReportCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	pattern := fmt.Sprintf("%s:%s:*", reportKeyPrefix, datasetID)

	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

func (n *noopReportCache) GetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, datasetID string, criteria domain.FilterCriteria, topN int, rep *domain.Report) error {
	return nil
}

func (n *noopReportCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	return nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// buildReportKey hashes the criteria into a stable key. Supplier and
// cost-center selections are sorted first so equivalent selections in
// different orders hit the same entry. The date bounds keep full
// precision: report dates can carry a time of day, and the default
// range ends at the dataset's exact max timestamp, so truncating to
// the day would collide criteria that filter different subsets.
func buildReportKey(datasetID string, criteria domain.FilterCriteria, topN int) string {
	parts := []string{
		"from=" + criteria.DateRange.Start.Format(time.RFC3339Nano),
		"to=" + criteria.DateRange.End.Format(time.RFC3339Nano),
		"top_n=" + fmt.Sprint(topN),
	}

	if len(criteria.Suppliers) > 0 {
		suppliers := append([]string(nil), criteria.Suppliers...)
		sort.Strings(suppliers)
		parts = append(parts, "suppliers="+strings.Join(suppliers, ","))
	}
	if len(criteria.CostCenters) > 0 {
		centers := append([]string(nil), criteria.CostCenters...)
		sort.Strings(centers)
		parts = append(parts, "cost_centers="+strings.Join(centers, ","))
	}

	raw := strings.Join(parts, "|")
	hash := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s:%s", reportKeyPrefix, datasetID, hex.EncodeToString(hash[:]))
}
