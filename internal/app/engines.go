package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trivia-chat-service/internal/chat"
	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/quiz"
)

// EngineKind names a question-sourcing strategy.
type EngineKind string

const (
	EngineDeterministic  EngineKind = "deterministic"
	EngineConversational EngineKind = "conversational"
)

// Step is what an engine produced for one controller transition.
type Step struct {
	Verdict  domain.Verdict
	Reply    string
	Question *domain.Question
}

// Engine is the controller-facing contract both question sources satisfy.
// One Engine instance serves exactly one game; reset discards it.
type Engine interface {
	// Open presents the first question for a freshly configured game.
	Open(ctx context.Context, cfg domain.GameConfig) (Step, error)
	// Evaluate judges an answer. current is nil for engines without structured questions.
	Evaluate(ctx context.Context, current *domain.Question, answer string) (Step, error)
	// Next presents the question that follows a correct answer.
	Next(ctx context.Context) (Step, error)
}

// EngineFactory builds a fresh engine per game.
type EngineFactory func() Engine

// DeterministicEngines serves questions from a bank and checks answers locally.
func DeterministicEngines(engine *quiz.Engine) EngineFactory {
	return func() Engine { return &deterministicEngine{quiz: engine} }
}

// ConversationalEngines delegates questions and evaluation to a completion service.
func ConversationalEngines(completer chat.Completer, instruction string) EngineFactory {
	return func() Engine {
		return &conversationalEngine{conv: chat.NewConversation(completer, instruction)}
	}
}

type deterministicEngine struct {
	quiz *quiz.Engine
}

func (e *deterministicEngine) Open(ctx context.Context, _ domain.GameConfig) (Step, error) {
	return e.Next(ctx)
}

func (e *deterministicEngine) Evaluate(_ context.Context, current *domain.Question, answer string) (Step, error) {
	if current == nil {
		return Step{}, fmt.Errorf("%w: no question to answer", domain.ErrInvalidTransition)
	}
	if quiz.Evaluate(*current, answer) == domain.VerdictCorrect {
		return Step{Verdict: domain.VerdictCorrect, Reply: chat.MarkerCorrect}, nil
	}
	reply := fmt.Sprintf("%s\nLa respuesta correcta era %s) %s.", chat.MarkerIncorrect, current.CorrectLetter(), current.CorrectText())
	return Step{Verdict: domain.VerdictIncorrect, Reply: reply}, nil
}

func (e *deterministicEngine) Next(ctx context.Context) (Step, error) {
	q, err := e.quiz.NextQuestion(ctx)
	if err != nil {
		return Step{}, err
	}
	return Step{Reply: quiz.Render(q), Question: &q}, nil
}

type conversationalEngine struct {
	conv *chat.Conversation
}

func (e *conversationalEngine) Open(ctx context.Context, cfg domain.GameConfig) (Step, error) {
	reply, err := e.conv.Send(ctx, openingMessage(cfg))
	if err != nil {
		return Step{Reply: reply.Text}, err
	}
	// A verdict in the opening reply has nothing to judge.
	return Step{Reply: reply.Text}, nil
}

func (e *conversationalEngine) Evaluate(ctx context.Context, _ *domain.Question, answer string) (Step, error) {
	reply, err := e.conv.Send(ctx, answer)
	if err != nil {
		return Step{Reply: reply.Text}, err
	}
	return Step{Verdict: reply.Verdict, Reply: reply.Text}, nil
}

// Next is a no-op: the model presents the following question in its evaluation reply.
func (e *conversationalEngine) Next(context.Context) (Step, error) {
	return Step{}, nil
}

func openingMessage(cfg domain.GameConfig) string {
	if cfg.Mode == domain.ModeDuo {
		return fmt.Sprintf("Iniciar modo 2 jugadores. Jugadores: %s y %s", cfg.Players[0].Name, cfg.Players[1].Name)
	}
	return "Iniciar modo 1 jugador. Jugador: " + cfg.Players[0].Name
}

// ParseEngineKind maps a config or query value to an EngineKind.
func ParseEngineKind(raw string) (EngineKind, error) {
	switch EngineKind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", EngineDeterministic:
		return EngineDeterministic, nil
	case EngineConversational:
		return EngineConversational, nil
	}
	return "", errors.New("unknown engine " + raw)
}
