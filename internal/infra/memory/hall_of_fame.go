package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-chat-service/internal/domain"
)

// HallOfFame keeps finished-game scores in process memory.
type HallOfFame struct {
	mu      sync.RWMutex
	entries []domain.ScoreEntry
}

func NewHallOfFame() *HallOfFame {
	return &HallOfFame{}
}

func (h *HallOfFame) Record(_ context.Context, entry domain.ScoreEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	// score desc, then whoever reached it first, then name
	sort.SliceStable(h.entries, func(i, j int) bool {
		a, b := h.entries[i], h.entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.Name < b.Name
	})
	return nil
}

func (h *HallOfFame) Top(_ context.Context, limit int) ([]domain.ScoreEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	out := make([]domain.ScoreEntry, limit)
	copy(out, h.entries[:limit])
	return out, nil
}
