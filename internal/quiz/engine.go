// Package quiz implements the deterministic question engine: it samples questions from a
// bank and checks answers locally without any model in the loop.
package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"trivia-chat-service/internal/domain"
)

// Bank hands out questions sampled uniformly at random. Implementations return
// domain.ErrNoQuestionsAvailable when they hold no questions.
type Bank interface {
	Sample(ctx context.Context) (domain.Question, error)
}

// Engine samples and evaluates questions.
type Engine struct {
	bank    Bank
	shuffle bool

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithShuffledOptions permutes the options of every sampled question so the correct
// answer is not always A. The seed makes the permutation reproducible in tests.
func WithShuffledOptions(seed int64) Option {
	return func(e *Engine) {
		e.shuffle = true
		e.rnd = rand.New(rand.NewSource(seed))
	}
}

func NewEngine(bank Bank, opts ...Option) *Engine {
	e := &Engine{
		bank: bank,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NextQuestion samples a question, trims its options and validates it.
// Repeats across calls are allowed.
func (e *Engine) NextQuestion(ctx context.Context) (domain.Question, error) {
	q, err := e.bank.Sample(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, fmt.Errorf("sampled invalid question: %w", err)
	}
	if e.shuffle {
		q = e.shuffled(q)
	}
	return q, nil
}

func (e *Engine) shuffled(q domain.Question) domain.Question {
	e.mu.Lock()
	perm := e.rnd.Perm(len(q.Options))
	e.mu.Unlock()

	out := q
	for to, from := range perm {
		out.Options[to] = q.Options[from]
		if from == q.Correct {
			out.Correct = to
		}
	}
	return out
}

// Evaluate accepts the correct letter, the correct text, or "<letter>) <text>",
// compared after trimming and case-folding. Anything else is incorrect.
func Evaluate(q domain.Question, raw string) domain.Verdict {
	answer := normalize(raw)
	letter := strings.ToLower(q.CorrectLetter())
	text := normalize(q.CorrectText())

	switch answer {
	case letter, text, letter + ") " + text:
		return domain.VerdictCorrect
	}
	return domain.VerdictIncorrect
}

// Render formats a question as chat text.
func Render(q domain.Question) string {
	var b strings.Builder
	b.WriteString(q.Prompt)
	b.WriteString("\n")
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%s) %s", domain.Letters[i], opt)
	}
	return b.String()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
