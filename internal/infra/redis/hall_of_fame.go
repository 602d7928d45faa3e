package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-chat-service/internal/domain"
)

const (
	hallOfFameKey        = "trivia:halloffame"
	hallOfFameEntriesKey = "trivia:halloffame:entries"
)

// HallOfFame ranks finished-game scores in a sorted set.
//
//	ZADD trivia:halloffame         {score} {member}
//	HSET trivia:halloffame:entries {member} {entry JSON}
//
// ZREVRANGE breaks score ties by member in reverse byte order, so members start with an
// inverted timestamp and the earlier entry ranks first.
type HallOfFame struct {
	client *redis.Client
}

func NewHallOfFame(client *redis.Client) *HallOfFame {
	return &HallOfFame{client: client}
}

func (h *HallOfFame) Record(ctx context.Context, entry domain.ScoreEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode score entry: %w", err)
	}
	member := memberFor(entry)
	pipe := h.client.TxPipeline()
	pipe.ZAdd(ctx, hallOfFameKey, redis.Z{Score: float64(entry.Score), Member: member})
	pipe.HSet(ctx, hallOfFameEntriesKey, member, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

// Top returns the best entries; a non-positive limit returns all of them.
func (h *HallOfFame) Top(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	ranked, err := h.client.ZRevRangeWithScores(ctx, hallOfFameKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("rank scores: %w", err)
	}
	if len(ranked) == 0 {
		return []domain.ScoreEntry{}, nil
	}

	members := make([]string, 0, len(ranked))
	for _, z := range ranked {
		members = append(members, z.Member.(string))
	}
	raws, err := h.client.HMGet(ctx, hallOfFameEntriesKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("load score entries: %w", err)
	}

	out := make([]domain.ScoreEntry, 0, len(raws))
	for i, raw := range raws {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var entry domain.ScoreEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("decode score entry %s: %w", members[i], err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func memberFor(entry domain.ScoreEntry) string {
	at := entry.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("%019d:%s", math.MaxInt64-at.UnixNano(), entry.ID)
}
