package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"trivia-chat-service/internal/domain"
)

type scriptedCompleter struct {
	replies []string
	err     error
	calls   int
	seen    [][]domain.Message
}

func (s *scriptedCompleter) Complete(_ context.Context, history []domain.Message) (string, error) {
	s.calls++
	s.seen = append(s.seen, history)
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type statusErr struct{ code int }

func (e statusErr) Error() string { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) Status() int   { return e.code }
func (e statusErr) Unwrap() error { return domain.ErrService }

func TestSendSeedsInstructionOnce(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"Pregunta 1", "Evaluación: Correcta\nPregunta 2"}}
	conv := NewConversation(completer, "")

	if _, err := conv.Send(context.Background(), "Iniciar modo 1 jugador"); err != nil {
		t.Fatalf("send: %v", err)
	}
	reply, err := conv.Send(context.Background(), "A")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.Verdict != domain.VerdictCorrect {
		t.Fatalf("expected correct verdict, got %s", reply.Verdict)
	}

	history := conv.History()
	roles := make([]string, 0, len(history))
	for _, m := range history {
		roles = append(roles, string(m.Role))
	}
	if got := strings.Join(roles, ","); got != "system,user,assistant,user,assistant" {
		t.Fatalf("unexpected history roles %s", got)
	}
	if history[0].Content != DefaultInstruction {
		t.Fatalf("expected default instruction first")
	}
	if len(completer.seen[1]) != 4 {
		t.Fatalf("expected the whole history to be forwarded, got %d messages", len(completer.seen[1]))
	}
}

func TestSendRejectsEmptyInputWithoutNetwork(t *testing.T) {
	completer := &scriptedCompleter{}
	conv := NewConversation(completer, "")

	_, err := conv.Send(context.Background(), "   ")
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if completer.calls != 0 || len(conv.History()) != 0 {
		t.Fatalf("empty input must not touch the network or history")
	}
}

func TestSendFailureKeepsUserTurn(t *testing.T) {
	conv := NewConversation(&scriptedCompleter{err: fmt.Errorf("%w: dial tcp: timeout", domain.ErrTransport)}, "")

	reply, err := conv.Send(context.Background(), "A")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !strings.HasPrefix(reply.Text, "Error de conexión:") || reply.Verdict != domain.VerdictNone {
		t.Fatalf("unexpected failure reply %+v", reply)
	}
	history := conv.History()
	if len(history) != 2 || history[1].Role != domain.RoleUser {
		t.Fatalf("expected system+user in history, got %+v", history)
	}

	conv = NewConversation(&scriptedCompleter{err: statusErr{code: 503}}, "")
	reply, err = conv.Send(context.Background(), "A")
	if !errors.Is(err, domain.ErrService) || reply.Text != "Error API: 503" {
		t.Fatalf("expected service failure text, got %q %v", reply.Text, err)
	}
}

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		text string
		want domain.Verdict
	}{
		{"Evaluación: Correcta\nSiguiente pregunta...", domain.VerdictCorrect},
		{"Lo siento. Evaluación: Incorrecta. Fin del juego.", domain.VerdictIncorrect},
		{"Evaluación: Correcta para Ana. Evaluación: Incorrecta", domain.VerdictIncorrect},
		{"¿Puedes aclarar si elegiste la opción B?", domain.VerdictNone},
		{"evaluación: correcta", domain.VerdictNone},
		{"Pregunta 2: ¿Cuál es el planeta más grande?\nA) Júpiter", domain.VerdictNone},
	}
	for _, tc := range cases {
		if got := ParseVerdict(tc.text); got != tc.want {
			t.Fatalf("ParseVerdict(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}
