package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"trivia-chat-service/internal/config"
	"trivia-chat-service/internal/infra/mongo"
	"trivia-chat-service/internal/infra/postgres"
	"trivia-chat-service/internal/infra/sheet"
)

// NewImportCmd copies a question sheet into Postgres or Mongo.
func NewImportCmd(configPath *string) *cobra.Command {
	var file, target string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a .csv or .xlsx question sheet into a question store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, file, target)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question sheet (.csv or .xlsx)")
	cmd.Flags().StringVar(&target, "to", "postgres", "destination store: postgres or mongo")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, configPath, file, target string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	questions, err := sheet.NewLoader(file).LoadBank(ctx)
	if err != nil {
		return err
	}

	var n int
	switch target {
	case "postgres":
		if cfg.Postgres.URL == "" {
			return fmt.Errorf("postgres url not configured")
		}
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		b, err := connectBackends(ctx, config.Config{Postgres: cfg.Postgres})
		if err != nil {
			return err
		}
		defer b.close()
		n, err = postgres.Import(ctx, b.pool, questions)
		if err != nil {
			return err
		}
	case "mongo":
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("mongo uri not configured")
		}
		client, err := mongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		n, err = mongo.NewBankLoader(client, mongoDatabase(cfg)).Import(ctx, questions)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown import target %q (want postgres or mongo)", target)
	}
	log.Printf("imported %d questions from %s into %s", n, file, target)
	return nil
}
