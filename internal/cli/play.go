package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/config"
	"trivia-chat-service/internal/domain"
)

// NewPlayCmd runs one game session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play trivia in the terminal (/reset starts over, /quit exits)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.Load(*configPath)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if errors.Is(err, os.ErrNotExist) {
				if cfg, err = config.Load(""); err != nil {
					return err
				}
			}
			if engine == "" {
				engine = cfg.Game.Engine
			}
			kind, err := app.ParseEngineKind(engine)
			if err != nil {
				return err
			}

			b, err := connectBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()
			service, err := buildService(ctx, cfg, b)
			if err != nil {
				return err
			}
			return runPlay(ctx, service, kind, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "deterministic or conversational")
	return cmd
}

// terminal drives a session from line input. The first line picks the mode, the
// next ones the player names; every other line is an answer.
type terminal struct {
	service *app.GameService
	id      string
	out     io.Writer

	mode  domain.Mode
	names []string
}

func runPlay(ctx context.Context, service *app.GameService, kind app.EngineKind, in io.Reader, out io.Writer) error {
	id, dirs, err := service.Open(ctx, kind)
	if err != nil {
		return err
	}
	t := &terminal{service: service, id: id, out: out}
	t.show(dirs)
	t.prompt(dirs.Sidebar)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "/quit":
			_, _ = service.Handle(ctx, id, domain.Intent{Kind: domain.IntentEnd})
			fmt.Fprintln(out, "Hasta pronto.")
			return nil
		case "/reset":
			t.mode, t.names = "", nil
			dirs, err = service.Handle(ctx, id, domain.Intent{Kind: domain.IntentReset})
		default:
			dirs, err = t.handle(ctx, line)
		}
		if err != nil {
			fmt.Fprintln(out, "!", describe(err))
		}
		t.show(dirs)
		t.prompt(dirs.Sidebar)
	}
	_, _ = service.Handle(ctx, id, domain.Intent{Kind: domain.IntentEnd})
	return scanner.Err()
}

func (t *terminal) handle(ctx context.Context, line string) (domain.Directives, error) {
	sidebar, err := t.service.Snapshot(t.id)
	if err != nil {
		return domain.Directives{}, err
	}
	if sidebar.State != domain.StateConfiguring {
		return t.service.Handle(ctx, t.id, domain.Intent{Kind: domain.IntentAnswer, Text: line})
	}

	if t.mode == "" {
		mode, err := domain.ParseMode(line)
		if err != nil {
			return domain.Directives{Sidebar: sidebar}, err
		}
		t.mode = mode
		return domain.Directives{Sidebar: sidebar}, nil
	}
	t.names = append(t.names, line)
	if len(t.names) < playerCount(t.mode) {
		return domain.Directives{Sidebar: sidebar}, nil
	}
	mode, names := t.mode, t.names
	t.mode, t.names = "", nil
	return t.service.Handle(ctx, t.id, domain.Intent{Kind: domain.IntentConfigure, Mode: mode, Names: names})
}

func (t *terminal) show(dirs domain.Directives) {
	for _, entry := range dirs.Entries {
		if entry.Role != domain.RoleAssistant {
			continue
		}
		fmt.Fprintln(t.out, entry.Content)
		fmt.Fprintln(t.out)
	}
}

func (t *terminal) prompt(sb domain.Sidebar) {
	switch sb.State {
	case domain.StateConfiguring:
		if t.mode == "" {
			fmt.Fprintln(t.out, "Modo (1 o 2 jugadores):")
		} else {
			fmt.Fprintf(t.out, "Nombre del jugador %d:\n", len(t.names)+1)
		}
	case domain.StateInProgress:
		fmt.Fprintf(t.out, "[%s] Turno de %s:\n", scoreLine(sb.Players), sb.CurrentTurn)
	case domain.StateFinished:
		fmt.Fprintf(t.out, "[%s] Escribe /reset para jugar de nuevo o /quit para salir.\n", scoreLine(sb.Players))
	}
}

func scoreLine(players []domain.PlayerScore) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		parts = append(parts, fmt.Sprintf("%s %d", p.Name, p.Score))
	}
	return strings.Join(parts, " | ")
}

func playerCount(mode domain.Mode) int {
	if mode == domain.ModeDuo {
		return 2
	}
	return 1
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return "El mensaje no puede estar vacío."
	case errors.Is(err, domain.ErrInvalidConfig):
		return "Configuración inválida: " + err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		return "Acción no permitida ahora."
	case errors.Is(err, domain.ErrNoQuestionsAvailable):
		return "No hay preguntas disponibles."
	}
	return err.Error()
}
