package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/infra/memory"
)

const (
	bankQuestionsKey = "trivia:bank:questions"
	bankIDsKey       = "trivia:bank:ids"
)

// BankRepository caches the question bank in Redis and samples from it there, so every
// instance shares one copy. On a miss it fills the cache from a loader.
//
//	HSET trivia:bank:questions {questionID} {question JSON}
//	SADD trivia:bank:ids       {questionID}
type BankRepository struct {
	client *redis.Client
	loader memory.BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewBankRepository(client *redis.Client, loader memory.BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Sample picks a random question with SRANDMEMBER; repeats are allowed.
func (r *BankRepository) Sample(ctx context.Context) (domain.Question, error) {
	id, err := r.client.SRandMember(ctx, bankIDsKey).Result()
	if errors.Is(err, redis.Nil) {
		if err := r.fill(ctx); err != nil {
			return domain.Question{}, err
		}
		id, err = r.client.SRandMember(ctx, bankIDsKey).Result()
	}
	if errors.Is(err, redis.Nil) {
		return domain.Question{}, domain.ErrNoQuestionsAvailable
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("sample question id: %w", err)
	}

	raw, err := r.client.HGet(ctx, bankQuestionsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Question{}, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, id)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question %s: %w", id, err)
	}
	var q domain.Question
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return domain.Question{}, fmt.Errorf("decode question %s: %w", id, err)
	}
	return q, nil
}

// Invalidate drops the cached bank so the next Sample reloads it.
func (r *BankRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, bankIDsKey, bankQuestionsKey).Err()
}

func (r *BankRepository) fill(ctx context.Context) error {
	_, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		n, err := r.client.SCard(ctx, bankIDsKey).Result()
		if err == nil && n > 0 {
			return nil, nil
		}

		qs, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return nil, nil
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.TxPipeline()
		for _, q := range qs {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, bankQuestionsKey, q.ID, raw)
			pipe.SAdd(ctx, bankIDsKey, q.ID)
		}
		if ttl > 0 {
			pipe.Expire(ctx, bankQuestionsKey, ttl)
			pipe.Expire(ctx, bankIDsKey, ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("cache bank: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
