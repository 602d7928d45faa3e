package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"trivia-chat-service/internal/domain"
)

// PointsPerCorrect is credited to the answering player on every correct verdict.
const PointsPerCorrect = 10

// Controller is the per-session game state machine. Engine calls run without holding the
// lock; a generation counter discards results that resolve after a Reset.
type Controller struct {
	engines EngineFactory

	mu       sync.Mutex
	state    domain.State
	cfg      domain.GameConfig
	scores   []int
	turn     int
	question *domain.Question
	engine   Engine
	summary  *domain.FinishSummary

	pending bool
	gen     uint64
	cancel  context.CancelFunc
}

func NewController(engines EngineFactory) *Controller {
	return &Controller{engines: engines, state: domain.StateConfiguring}
}

// Configure validates players, opens a fresh engine and moves to InProgress.
// On engine failure nothing is committed and the session stays Configuring.
func (c *Controller) Configure(ctx context.Context, mode domain.Mode, names []string) (domain.Directives, error) {
	c.mu.Lock()
	if c.state != domain.StateConfiguring || c.pending {
		defer c.mu.Unlock()
		return c.directivesLocked(nil), fmt.Errorf("%w: configure while %s", domain.ErrInvalidTransition, c.state)
	}
	cfg, err := domain.NewGameConfig(mode, names)
	if err != nil {
		defer c.mu.Unlock()
		return c.directivesLocked(nil), err
	}
	engine := c.engines()
	gen, callCtx := c.beginLocked(ctx)
	c.mu.Unlock()

	step, err := engine.Open(callCtx, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.endLocked(gen) {
		return domain.Directives{}, domain.ErrStaleResponse
	}
	if err != nil {
		return c.directivesLocked(assistant(nil, step.Reply)), err
	}

	c.state = domain.StateInProgress
	c.cfg = cfg
	c.scores = make([]int, len(cfg.Players))
	c.turn = 0
	c.question = step.Question
	c.engine = engine
	c.summary = nil
	return c.directivesLocked(assistant(nil, step.Reply)), nil
}

// SubmitAnswer evaluates text for the player whose turn it is.
func (c *Controller) SubmitAnswer(ctx context.Context, text string) (domain.Directives, error) {
	c.mu.Lock()
	if c.state != domain.StateInProgress || c.pending {
		defer c.mu.Unlock()
		reason := string(c.state)
		if c.pending {
			reason = "an answer is still being evaluated"
		}
		return c.directivesLocked(nil), fmt.Errorf("%w: answer while %s", domain.ErrInvalidTransition, reason)
	}
	if strings.TrimSpace(text) == "" {
		defer c.mu.Unlock()
		return c.directivesLocked(nil), domain.ErrEmptyInput
	}
	engine, current := c.engine, c.question
	gen, callCtx := c.beginLocked(ctx)
	c.mu.Unlock()

	step, err := engine.Evaluate(callCtx, current, text)
	var next Step
	var nextErr error
	if err == nil && step.Verdict == domain.VerdictCorrect {
		next, nextErr = engine.Next(callCtx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.endLocked(gen) {
		return domain.Directives{}, domain.ErrStaleResponse
	}

	entries := []domain.Message{{Role: domain.RoleUser, Content: text}}
	if err != nil {
		return c.directivesLocked(assistant(entries, step.Reply)), err
	}
	if nextErr != nil && !errors.Is(nextErr, domain.ErrNoQuestionsAvailable) {
		// The answer is left unscored so the same question can be answered again.
		return c.directivesLocked(entries), nextErr
	}
	entries = assistant(entries, step.Reply)

	switch step.Verdict {
	case domain.VerdictCorrect:
		c.scores[c.turn] += PointsPerCorrect
		if c.cfg.Mode == domain.ModeDuo {
			c.turn = 1 - c.turn
		}
		if nextErr != nil {
			c.finishLocked(domain.FinishNoQuestions)
			return c.directivesLocked(assistant(entries, c.summaryText())), nextErr
		}
		c.question = next.Question
		entries = assistant(entries, next.Reply)
	case domain.VerdictIncorrect:
		if c.cfg.Mode == domain.ModeDuo {
			c.finishLocked(domain.FinishWin)
		} else {
			c.finishLocked(domain.FinishIncorrectAnswer)
		}
		entries = assistant(entries, c.summaryText())
	}
	return c.directivesLocked(entries), nil
}

// Reset discards the game, including any answer still in flight, and returns to Configuring.
func (c *Controller) Reset() domain.Directives {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.pending = false
	c.state = domain.StateConfiguring
	c.cfg = domain.GameConfig{}
	c.scores = nil
	c.turn = 0
	c.question = nil
	c.engine = nil
	c.summary = nil
	return c.directivesLocked(nil)
}

// Snapshot returns the sidebar view of the session.
func (c *Controller) Snapshot() domain.Sidebar {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sidebarLocked()
}

// Mode reports the configured mode, empty while configuring.
func (c *Controller) Mode() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Mode
}

func (c *Controller) beginLocked(ctx context.Context) (uint64, context.Context) {
	callCtx, cancel := context.WithCancel(ctx)
	c.pending = true
	c.cancel = cancel
	return c.gen, callCtx
}

// endLocked releases the in-flight slot and reports whether the result still belongs to
// the current game.
func (c *Controller) endLocked(gen uint64) bool {
	if gen != c.gen {
		return false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.pending = false
	return true
}

func (c *Controller) finishLocked(reason domain.FinishReason) {
	c.state = domain.StateFinished
	c.question = nil
	summary := &domain.FinishSummary{Reason: reason, Scores: c.playerScoresLocked()}
	current := c.cfg.Players[c.turn].Name
	if reason == domain.FinishWin {
		winner := 1 - c.turn
		summary.Winner = c.cfg.Players[winner].Name
		summary.Loser = current
		summary.FinalScore = c.scores[winner]
	} else {
		summary.FinalScore = c.scores[c.turn]
	}
	c.summary = summary
}

func (c *Controller) summaryText() string {
	s := c.summary
	if s == nil {
		return ""
	}
	switch s.Reason {
	case domain.FinishWin:
		parts := make([]string, 0, len(s.Scores))
		for _, ps := range s.Scores {
			parts = append(parts, fmt.Sprintf("%s %d", ps.Name, ps.Score))
		}
		return fmt.Sprintf("Juego terminado. Gana %s. Puntajes: %s.", s.Winner, strings.Join(parts, ", "))
	case domain.FinishNoQuestions:
		return fmt.Sprintf("No quedan preguntas disponibles. Juego terminado. Puntaje final: %d.", s.FinalScore)
	}
	return fmt.Sprintf("Juego terminado. Puntaje final: %d.", s.FinalScore)
}

func (c *Controller) playerScoresLocked() []domain.PlayerScore {
	out := make([]domain.PlayerScore, 0, len(c.cfg.Players))
	for i, p := range c.cfg.Players {
		out = append(out, domain.PlayerScore{Name: p.Name, Score: c.scores[i]})
	}
	return out
}

func (c *Controller) sidebarLocked() domain.Sidebar {
	sidebar := domain.Sidebar{
		State:    c.state,
		Mode:     c.cfg.Mode,
		Players:  []domain.PlayerScore{},
		Finished: c.state == domain.StateFinished,
		Summary:  c.summary,
	}
	if len(c.cfg.Players) > 0 {
		sidebar.Players = c.playerScoresLocked()
	}
	if c.state == domain.StateInProgress {
		sidebar.CurrentTurn = c.cfg.Players[c.turn].Name
	}
	return sidebar
}

func (c *Controller) directivesLocked(entries []domain.Message) domain.Directives {
	if entries == nil {
		entries = []domain.Message{}
	}
	return domain.Directives{Entries: entries, Sidebar: c.sidebarLocked()}
}

func assistant(entries []domain.Message, text string) []domain.Message {
	if text == "" {
		return entries
	}
	return append(entries, domain.Message{Role: domain.RoleAssistant, Content: text})
}
