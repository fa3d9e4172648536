package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Black-And-White-Club/tier-bot/app"
	"github.com/Black-And-White-Club/tier-bot/app/events"
	"github.com/Black-And-White-Club/tier-bot/app/modules/badge"
	nominationservice "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/application"
	nominationdb "github.com/Black-And-White-Club/tier-bot/app/modules/nomination/infrastructure/repositories"
	"github.com/Black-And-White-Club/tier-bot/app/modules/tier/infrastructure/tierconfig"
	"github.com/Black-And-White-Club/tier-bot/config"
	"github.com/Black-And-White-Club/tier-bot/internal/db/bundb"
	"github.com/Black-And-White-Club/tier-bot/internal/eventbus"
	"github.com/Black-And-White-Club/tier-bot/internal/handlerwrapper"
	"github.com/Black-And-White-Club/tier-bot/internal/observability"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/attr"
	"github.com/Black-And-White-Club/tier-bot/internal/observability/metrics"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "tierbot",
		Usage: "community tier eligibility and nomination service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			importBadgesCommand(),
			expireNominationsCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the event handlers, expiry queue and HTTP API",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := &app.App{}
			if err := application.Initialize(ctx, cfg); err != nil {
				if application.Observability != nil {
					_ = application.Close()
				}
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			runErr := application.Run(ctx)
			closeErr := application.Close()
			if runErr != nil {
				return runErr
			}
			return closeErr
		},
	}
}

func importBadgesCommand() *cli.Command {
	return &cli.Command{
		Name:      "import-badges",
		Usage:     "import badge awards from a CSV or XLSX file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Value: "import", Usage: "source recorded on each award"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("import-badges needs a file", 2)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			provider := observability.New(config.ToObsConfig(cfg))

			db, err := bundb.Open(c.Context, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			module := badge.NewBadgeModule(provider.Logger, metrics.NewNoop(), provider.Tracer, db)
			result, err := module.BadgeService.ImportAwards(c.Context, filepath.Base(path), data, c.String("source"))
			if err != nil {
				return err
			}
			if result.IsFailure() {
				return cli.Exit(fmt.Sprintf("import rejected: %v", *result.Failure), 1)
			}

			summary := result.Success
			fmt.Printf("Imported %d rows: %d awards for %d members\n", summary.Rows, summary.Awarded, summary.Members)
			return nil
		},
	}
}

func expireNominationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "expire-nominations",
		Usage: "close open nomination threads whose voting window has ended",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 100, Usage: "maximum threads to close"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			provider := observability.New(config.ToObsConfig(cfg))
			logger := provider.Logger

			tiers, err := tierconfig.LoadFile(cfg.Tiers.File)
			if err != nil {
				return fmt.Errorf("failed to load tiers: %w", err)
			}

			db, err := bundb.Open(ctx, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			service := nominationservice.NewNominationService(
				nominationdb.NewRepository(db),
				tiers,
				nil,
				logger,
				metrics.NewNoop(),
				provider.Tracer,
				db,
			)

			closed, err := service.CloseExpired(ctx, c.Int("limit"))
			if err != nil {
				return err
			}
			fmt.Printf("Closed %d expired threads\n", len(closed))

			if len(closed) == 0 || cfg.NATS.URL == "" {
				return nil
			}

			bus, err := eventbus.NewJetStreamEventBus(ctx, cfg.NATS.URL, "tierbot-cli", logger)
			if err != nil {
				return fmt.Errorf("failed to connect to event bus: %w", err)
			}
			defer bus.Close()

			for _, thread := range closed {
				msg, err := handlerwrapper.NewMessage(ctx, events.NominationThreadClosedV1, events.NominationThreadClosedPayloadV1{
					Thread: events.ThreadPayload(thread),
				})
				if err != nil {
					return err
				}
				if err := bus.Publish(events.NominationThreadClosedV1, msg); err != nil {
					logger.ErrorContext(ctx, "Failed to publish thread closed event",
						attr.String("thread_id", thread.ID.String()),
						attr.Error(err),
					)
				}
			}
			return nil
		},
	}
}
