package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shelfstock-backend/internal/containers"
	"github.com/angelmondragon/shelfstock-backend/internal/observe"
	"github.com/angelmondragon/shelfstock-backend/internal/products"
	"github.com/angelmondragon/shelfstock-backend/internal/shelves"
	"github.com/angelmondragon/shelfstock-backend/pkg/config"
	"github.com/angelmondragon/shelfstock-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/angelmondragon/shelfstock-backend/pkg/ids"
	"github.com/angelmondragon/shelfstock-backend/pkg/logger"
	"github.com/angelmondragon/shelfstock-backend/pkg/migrate"
)

// app holds the services a command runs against.
type app struct {
	products   products.Service
	containers containers.Service
	shelves    shelves.Service
	close      func() error
}

type bootstrapper func(ctx context.Context, envFile string) (*app, error)

func newRootCmd(boot bootstrapper) *cobra.Command {
	var (
		envFile string
		current *app
	)

	root := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Manage products, containers and shelves",
		Long:          `Operator CLI for the shelfstock inventory store. Every command runs one inventory operation and prints its result as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), envFile)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if current == nil || current.close == nil {
				return nil
			}
			return current.close()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading configuration (default .env)")

	resolve := func() *app { return current }
	root.AddCommand(
		newProductCmd(resolve),
		newContainerCmd(resolve),
		newShelfCmd(resolve),
	)

	return root
}

func bootstrapFromEnv(ctx context.Context, envFile string) (*app, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logg := logger.New(logger.Options{
		ServiceName: "inventoryctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	a, err := newApp(client, observe.NewTracker(logg, nil))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return a, nil
}

func newApp(client *db.Client, tracker observe.Tracker) (*app, error) {
	generator := ids.NewGenerator()

	productSvc, err := products.NewService(products.NewRepository(client.DB()), client, generator, tracker)
	if err != nil {
		return nil, err
	}
	containerSvc, err := containers.NewService(containers.NewRepository(client.DB()), client, generator, tracker)
	if err != nil {
		return nil, err
	}
	shelfSvc, err := shelves.NewService(shelves.NewRepository(client.DB()), client, generator, tracker)
	if err != nil {
		return nil, err
	}

	return &app{
		products:   productSvc,
		containers: containerSvc,
		shelves:    shelfSvc,
		close:      client.Close,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(w io.Writer, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", typed.Code(), typed.Message())
	if details := typed.Details(); details != nil {
		_ = printJSON(w, details)
	}
}
