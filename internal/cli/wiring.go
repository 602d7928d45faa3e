package cli

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/config"
	"trivia-chat-service/internal/domain"
	"trivia-chat-service/internal/infra/memory"
	"trivia-chat-service/internal/infra/mongo"
	"trivia-chat-service/internal/infra/postgres"
	redisinfra "trivia-chat-service/internal/infra/redis"
	"trivia-chat-service/internal/infra/sheet"
	"trivia-chat-service/internal/llm"
	"trivia-chat-service/internal/quiz"
)

// backends holds the external connections a config asks for. Every field is optional.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
	mongo *mongodriver.Client
}

func connectBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, err
		}
		b.pool = pool
	}
	if cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			b.close()
			return nil, err
		}
		b.mongo = client
	}
	return b, nil
}

func (b *backends) close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.mongo.Disconnect(ctx)
	}
}

func mongoDatabase(cfg config.Config) string {
	if cfg.Mongo.Database == "" {
		return "trivia"
	}
	return cfg.Mongo.Database
}

// bankLoader picks the question source. An explicit questions.source wins; otherwise the
// first configured of sheet, postgres and mongo is used, falling back to built-in questions.
func bankLoader(cfg config.Config, b *backends) (memory.BankLoader, string, error) {
	source := strings.ToLower(strings.TrimSpace(cfg.Questions.Source))
	if source == "" {
		switch {
		case cfg.Questions.Path != "":
			source = "sheet"
		case b.pool != nil:
			source = "postgres"
		case b.mongo != nil:
			source = "mongo"
		default:
			source = "builtin"
		}
	}

	switch source {
	case "sheet":
		if cfg.Questions.Path == "" {
			return nil, source, fmt.Errorf("%w: questions.path is required for the sheet source", domain.ErrInvalidConfig)
		}
		return sheet.NewLoader(cfg.Questions.Path), source, nil
	case "postgres":
		if b.pool == nil {
			return nil, source, fmt.Errorf("%w: postgres source needs postgres.url", domain.ErrInvalidConfig)
		}
		return postgres.NewBankLoader(b.pool), source, nil
	case "mongo":
		if b.mongo == nil {
			return nil, source, fmt.Errorf("%w: mongo source needs mongo.uri", domain.ErrInvalidConfig)
		}
		return mongo.NewBankLoader(b.mongo, mongoDatabase(cfg)), source, nil
	case "builtin":
		return memory.NewStaticBankLoader(builtinQuestions()), source, nil
	}
	return nil, source, fmt.Errorf("%w: unknown questions.source %q", domain.ErrInvalidConfig, source)
}

// buildEngines wires the deterministic engine over a cached bank, and the conversational
// engine when an API key is configured.
func buildEngines(ctx context.Context, cfg config.Config, b *backends) (map[app.EngineKind]app.EngineFactory, error) {
	loader, source, err := bankLoader(cfg, b)
	if err != nil {
		return nil, err
	}
	// A broken sheet must stop startup rather than surface mid-game.
	if _, err := loader.LoadBank(ctx); err != nil {
		return nil, fmt.Errorf("load %s questions: %w", source, err)
	}

	ttl := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var bank quiz.Bank
	if b.redis != nil {
		bank = redisinfra.NewBankRepository(b.redis, loader, ttl)
	} else {
		bank = memory.NewBankRepository(loader, ttl)
	}
	var opts []quiz.Option
	if cfg.Questions.ShuffleOptions {
		opts = append(opts, quiz.WithShuffledOptions(time.Now().UnixNano()))
	}

	engines := map[app.EngineKind]app.EngineFactory{
		app.EngineDeterministic: app.DeterministicEngines(quiz.NewEngine(bank, opts...)),
	}
	log.Printf("deterministic engine serving %s questions", source)

	if cfg.LLM.APIKey != "" {
		client, err := llm.NewClient(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     config.TTLDuration(cfg.LLM.Timeout, llm.DefaultTimeout),
		})
		if err != nil {
			return nil, err
		}
		engines[app.EngineConversational] = app.ConversationalEngines(client, "")
		log.Printf("conversational engine enabled")
	}
	return engines, nil
}

func buildService(ctx context.Context, cfg config.Config, b *backends) (*app.GameService, error) {
	engines, err := buildEngines(ctx, cfg, b)
	if err != nil {
		return nil, err
	}

	var store app.SessionRepository = memory.NewSessionStore()
	if b.redis != nil {
		store = redisinfra.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}

	var board app.HallOfFame
	switch {
	case b.pool != nil:
		board = postgres.NewHallOfFame(b.pool)
	case b.redis != nil:
		board = redisinfra.NewHallOfFame(b.redis)
	default:
		board = memory.NewHallOfFame()
	}

	return app.NewGameService(store, engines, board, app.WithWelcome(cfg.WelcomeEnabled())), nil
}

// builtinQuestions keeps the service playable with no question store configured.
func builtinQuestions() []domain.Question {
	return []domain.Question{
		domain.NewBankQuestion("builtin-1", "¿Cuál es el planeta más grande del sistema solar?", "Júpiter", [3]string{"Saturno", "Neptuno", "Tierra"}, "ciencias"),
		domain.NewBankQuestion("builtin-2", "¿Cuál es el símbolo químico del oro?", "Au", [3]string{"Ag", "Fe", "Or"}, "química"),
		domain.NewBankQuestion("builtin-3", "¿Cuánto es la raíz cuadrada de 144?", "12", [3]string{"14", "10", "16"}, "matemáticas"),
		domain.NewBankQuestion("builtin-4", "¿Quién escribió \"Cien años de soledad\"?", "Gabriel García Márquez", [3]string{"Mario Vargas Llosa", "Julio Cortázar", "Pablo Neruda"}, "literatura"),
		domain.NewBankQuestion("builtin-5", "¿En qué año llegó Colón a América?", "1492", [3]string{"1500", "1453", "1519"}, "historia"),
	}
}
