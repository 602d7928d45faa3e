package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-chat-service/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank())}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.Sample(context.Background()); err != nil {
		t.Fatalf("sample: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.Sample(context.Background()); err != nil {
		t.Fatalf("sample 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestBankRepositoryReloadsAfterTTL(t *testing.T) {
	loader := &countingLoader{BankLoader: NewStaticBankLoader(sampleBank())}
	repo := NewBankRepository(loader, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	if _, err := repo.Questions(context.Background()); err != nil {
		t.Fatalf("questions: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.Questions(context.Background()); err != nil {
		t.Fatalf("questions: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestBankRepositoryEmptyBank(t *testing.T) {
	repo := NewBankRepository(NewStaticBankLoader(nil), 0)
	if _, err := repo.Sample(context.Background()); !errors.Is(err, domain.ErrNoQuestionsAvailable) {
		t.Fatalf("expected ErrNoQuestionsAvailable, got %v", err)
	}
}

func TestBankRepositorySamplesWholeBank(t *testing.T) {
	repo := NewBankRepository(NewStaticBankLoader(sampleBank()), 0)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		q, err := repo.Sample(context.Background())
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		seen[q.ID] = true
	}
	if len(seen) != len(sampleBank()) {
		t.Fatalf("expected every question to be sampled, saw %v", seen)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx)
}

func sampleBank() []domain.Question {
	return []domain.Question{
		domain.NewBankQuestion("q1", "What is 2 + 2?", "4", [3]string{"3", "5", "22"}, "Matemáticas"),
		domain.NewBankQuestion("q2", "Capital de Francia?", "Paris", [3]string{"Roma", "Madrid", "Berlin"}, "Geografía"),
		domain.NewBankQuestion("q3", "Símbolo químico del oro?", "Au", [3]string{"Ag", "Fe", "Go"}, "Química"),
	}
}
