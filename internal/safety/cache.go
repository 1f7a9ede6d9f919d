package safety

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightbuddy-ai/platform/pkg/logging"
)

const (
	analysisKeyPrefix = "safety:analysis:"
	incidentKeyPrefix = "safety:incident:"

	analysisTTL = 24 * time.Hour
	incidentTTL = 7 * 24 * time.Hour

	defaultScanLimit = 500
	scanBatchSize    = 100
)

// Cache fronts Redis for analysis deduplication and degraded-mode incident
// reads. Incidents written here are a short-lived shadow of the durable
// store; they expire after a week.
type Cache struct {
	client    *redis.Client
	logger    *logging.Logger
	scanLimit int64
}

// NewCache builds a Cache. scanLimit bounds how many incident keys a
// degraded read will walk; values <= 0 use the default of 500.
func NewCache(client *redis.Client, logger *logging.Logger, scanLimit int) *Cache {
	if client == nil {
		panic("safety: redis client is required")
	}
	if logger == nil {
		panic("safety: logger is required")
	}
	if scanLimit <= 0 {
		scanLimit = defaultScanLimit
	}
	return &Cache{client: client, logger: logger, scanLimit: int64(scanLimit)}
}

// AnalysisKey derives the dedup cache key for a scoring request. Identical
// content from the same user and conversation maps to the same key.
func AnalysisKey(userID, conversationID, content string) string {
	sum := sha256.Sum256([]byte(userID + "|" + conversationID + "|" + content))
	return analysisKeyPrefix + hex.EncodeToString(sum[:])
}

// GetAnalysis returns a cached analysis, or found=false on a miss.
func (c *Cache) GetAnalysis(ctx context.Context, key string) (*Analysis, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("safety: read cached analysis: %w", err)
	}
	var analysis Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		// A corrupt entry is treated as a miss so scoring can repopulate it.
		c.logger.Warn("dropping unreadable cached analysis", "key", key, "error", err)
		return nil, false, nil
	}
	return &analysis, true, nil
}

// PutAnalysis stores an analysis for 24 hours.
func (c *Cache) PutAnalysis(ctx context.Context, key string, analysis *Analysis) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("safety: encode analysis: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, analysisTTL).Err(); err != nil {
		return fmt.Errorf("safety: cache analysis: %w", err)
	}
	return nil
}

// PutIncident shadows an incident in Redis for seven days so recent history
// stays readable when the durable store is down.
func (c *Cache) PutIncident(ctx context.Context, incident *Incident) error {
	raw, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("safety: encode incident: %w", err)
	}
	key := incidentKeyPrefix + incident.ID
	if err := c.client.Set(ctx, key, raw, incidentTTL).Err(); err != nil {
		return fmt.Errorf("safety: cache incident: %w", err)
	}
	return nil
}

// IncidentsByUser walks the incident keyspace and returns up to limit of
// the user's incidents, newest first. The walk visits at most the
// configured scan limit of keys, so results can be partial on large
// keyspaces; this path only serves degraded reads.
func (c *Cache) IncidentsByUser(ctx context.Context, userID string, limit int) ([]Incident, error) {
	var (
		incidents []Incident
		cursor    uint64
		visited   int64
	)
	for {
		batch := c.scanLimit - visited
		if batch > scanBatchSize {
			batch = scanBatchSize
		}
		keys, next, err := c.client.Scan(ctx, cursor, incidentKeyPrefix+"*", batch).Result()
		if err != nil {
			return nil, fmt.Errorf("safety: scan cached incidents: %w", err)
		}
		for _, key := range keys {
			raw, err := c.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("safety: read cached incident: %w", err)
			}
			var incident Incident
			if err := json.Unmarshal(raw, &incident); err != nil {
				c.logger.Warn("skipping unreadable cached incident", "key", key, "error", err)
				continue
			}
			if incident.UserID == userID {
				incidents = append(incidents, incident)
			}
		}
		visited += int64(len(keys))
		cursor = next
		if cursor == 0 || visited >= c.scanLimit {
			break
		}
	}
	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].CreatedAt > incidents[j].CreatedAt
	})
	if limit > 0 && len(incidents) > limit {
		incidents = incidents[:limit]
	}
	return incidents, nil
}

// Ping reports cache reachability.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("safety: redis ping: %w", err)
	}
	return nil
}
