package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/Asignacion-api/internal/application/allocation"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Asignacion-api/internal/interfaces/http"
	"github.com/jhoicas/Asignacion-api/pkg/config"
	"github.com/jhoicas/Asignacion-api/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	var (
		cfg       *config.Config
		log       *logger.Logger
		storeFlag string
	)

	root := &cobra.Command{
		Use:           "asignacion",
		Short:         "API de asignación de líneas de pedido a lotes de stock",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.Backend = storeFlag
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, log)
		},
	}
	root.PersistentFlags().StringVar(&storeFlag, "store", config.StorePostgres, "backend de persistencia: postgres|memory")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Inicia el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, log)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Aplica o revierte las migraciones de PostgreSQL",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			migrateFn := postgres.MigrateUp
			if direction == "down" {
				migrateFn = postgres.MigrateDown
			}
			version, err := migrateFn(cfg.DB.ConnectionString())
			if err != nil {
				return err
			}
			log.Info().Str("direction", direction).Uint("version", version).Msg("migraciones aplicadas")
			return nil
		},
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Backend).
		Msg("iniciando aplicación")

	var newUoW allocation.UnitOfWorkFactory
	switch cfg.Store.Backend {
	case config.StoreMemory:
		store, err := memory.NewStore()
		if err != nil {
			return err
		}
		newUoW = memory.NewUnitOfWorkFactory(store)
	default:
		if cfg.DB.AutoMigrate {
			version, err := postgres.MigrateUp(cfg.DB.ConnectionString())
			if err != nil {
				return err
			}
			log.Info().Uint("version", version).Msg("migraciones aplicadas")
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		defer pool.Close()
		newUoW = postgres.NewUnitOfWorkFactory(pool)
	}

	allocationUC := allocation.NewAllocationUseCase(newUoW)
	metricsRegistry := metrics.NewRegistry()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Allocation:    allocationUC,
		Metrics:       metricsRegistry,
		ExposeMetrics: cfg.Metrics.Enabled,
		Logger:        log,
	})

	listenErr := make(chan error, 1)
	go func() {
		log.Debug().Str("addr", cfg.HTTP.Addr()).Msg("escuchando")
		listenErr <- app.Listen(cfg.HTTP.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	if stopped, err := awaitStop(listenErr, quit); stopped {
		return err
	}
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
	return nil
}

// awaitStop espera a que Listen termine por su cuenta (stopped=true, con su error) o a una señal
// de apagado (stopped=false).
func awaitStop(listenErr <-chan error, quit <-chan os.Signal) (stopped bool, err error) {
	select {
	case err := <-listenErr:
		if err != nil {
			return true, fmt.Errorf("servidor HTTP: %w", err)
		}
		return true, nil
	case <-quit:
		return false, nil
	}
}
