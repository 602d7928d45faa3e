// Package chat implements the conversational engine: the game is driven by an external
// chat-completion model and the session only keeps the conversation log.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"trivia-chat-service/internal/domain"
)

// Verdict markers the model is instructed to emit.
const (
	MarkerCorrect   = "Evaluación: Correcta"
	MarkerIncorrect = "Evaluación: Incorrecta"
)

// DefaultInstruction is prepended once to every conversation.
const DefaultInstruction = `Actúas como un motor de juego de trivia académica.

Reglas obligatorias:
- Solo puedes interactuar dentro del contexto del juego.
- Si el usuario se sale del contexto, rechaza educadamente.
- Usa el historial para mantener el estado.

Funciones:
1. Solicitar modo de juego si no está definido.
2. Generar preguntas con 4 opciones (A, B, C, D).
3. Evaluar la respuesta del usuario.
4. Mantener puntaje y estado del juego.

Formato obligatorio de evaluación:
Evaluación: Correcta
o
Evaluación: Incorrecta

Después de una respuesta correcta presenta la siguiente pregunta en el mismo mensaje.

Reglas del juego:
- 1 jugador: Si falla, el juego termina.
- 2 jugadores: Alternar turnos. Indica a qué jugador le toca responder. Si un jugador falla, gana el otro.

Tono:
Educativo, claro y neutral.`

// Completer sends a full conversation to a chat-completion service and returns the assistant text.
// Failures wrap domain.ErrTransport or domain.ErrService.
type Completer interface {
	Complete(ctx context.Context, history []domain.Message) (string, error)
}

// Reply is what one Send produced.
type Reply struct {
	Text    string
	Verdict domain.Verdict
}

// Conversation owns an append-only history. It is safe for concurrent use, but callers are
// expected to send one message at a time.
type Conversation struct {
	completer   Completer
	instruction string

	mu      sync.Mutex
	history []domain.Message
}

func NewConversation(completer Completer, instruction string) *Conversation {
	if strings.TrimSpace(instruction) == "" {
		instruction = DefaultInstruction
	}
	return &Conversation{completer: completer, instruction: instruction}
}

// Send appends the user turn, forwards the whole history and appends the assistant reply.
// On a completion failure the reply carries a user-facing error text and err wraps
// domain.ErrTransport or domain.ErrService; the user turn stays in the history.
func (c *Conversation) Send(ctx context.Context, text string) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return Reply{Text: "El mensaje no puede estar vacío."}, domain.ErrEmptyInput
	}

	c.mu.Lock()
	if len(c.history) == 0 {
		c.history = append(c.history, domain.Message{Role: domain.RoleSystem, Content: c.instruction})
	}
	c.history = append(c.history, domain.Message{Role: domain.RoleUser, Content: text})
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	answer, err := c.completer.Complete(ctx, snapshot)
	if err != nil {
		return Reply{Text: failureText(err)}, err
	}

	c.mu.Lock()
	c.history = append(c.history, domain.Message{Role: domain.RoleAssistant, Content: answer})
	c.mu.Unlock()

	return Reply{Text: answer, Verdict: ParseVerdict(answer)}, nil
}

// History returns a copy of the conversation so far.
func (c *Conversation) History() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() []domain.Message {
	out := make([]domain.Message, len(c.history))
	copy(out, c.history)
	return out
}

// ParseVerdict recognizes exactly the two literal markers. The incorrect marker wins when
// both appear; no marker means no verdict.
func ParseVerdict(text string) domain.Verdict {
	switch {
	case strings.Contains(text, MarkerIncorrect):
		return domain.VerdictIncorrect
	case strings.Contains(text, MarkerCorrect):
		return domain.VerdictCorrect
	}
	return domain.VerdictNone
}

// StatusError is implemented by completion errors that carry an HTTP status.
type StatusError interface {
	error
	Status() int
}

func failureText(err error) string {
	var se StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("Error API: %d", se.Status())
	}
	if errors.Is(err, domain.ErrService) {
		return "Error API: " + err.Error()
	}
	return "Error de conexión: " + err.Error()
}
