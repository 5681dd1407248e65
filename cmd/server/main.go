package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jackc/pgx/v5/pgxpool"

	dbfs "github.com/heartlinkapp/heartlink/db"
	"github.com/heartlinkapp/heartlink/internal/auth"
	"github.com/heartlinkapp/heartlink/internal/boot"
	"github.com/heartlinkapp/heartlink/internal/config"
	"github.com/heartlinkapp/heartlink/internal/db"
	"github.com/heartlinkapp/heartlink/internal/entitlement"
	"github.com/heartlinkapp/heartlink/internal/handlers"
	"github.com/heartlinkapp/heartlink/internal/live"
	"github.com/heartlinkapp/heartlink/internal/logger"
	"github.com/heartlinkapp/heartlink/internal/server"
	"github.com/heartlinkapp/heartlink/internal/users"
	"github.com/heartlinkapp/heartlink/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(os.Args[2:])
		return
	}

	fx.New(
		fx.Provide(
			provideConfig,
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideDBConn,

			fx.Annotate(users.NewPGStore, fx.As(new(users.Store))),
			fx.Annotate(entitlement.NewPGStore, fx.As(new(entitlement.Store))),

			users.NewService,
			fx.Annotate(func(svc *users.Service) auth.IdentityResolver {
				return svc
			}, fx.As(new(auth.IdentityResolver))),
			entitlement.NewService,
			provideSweeper,

			live.NewRegistry,
			live.NewDispatcher,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(handlers.NewUsersHandler),
			provideServerHandler(handlers.NewSubscriptionsHandler),
			provideServerHandler(handlers.NewNotifyHandler),
			provideServerHandler(handlers.NewMessagesHandler),
			provideServerHandler(handlers.NewWSHandler),

			provideServer,
		),
		fx.Invoke(
			startSweeper,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func runMigrate(args []string) {
	cfg, err := provideConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := provideLogger(cfg)

	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	migrations, err := fs.Sub(dbfs.MigrationsFS, "migrations")
	if err != nil {
		log.Error("migrations fs", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.RunMigrate(log, cfg.Postgres, migrations, command, args); err != nil {
		log.Error("migrate failed", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideAuthHandler(log *slog.Logger, usersService *users.Service, rc *boot.RuntimeConfig) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, usersService, rc.JWTSecret, rc.JWTExpiresIn)
}

func provideSweeper(log *slog.Logger, svc *entitlement.Service, rc *boot.RuntimeConfig) (*entitlement.Sweeper, error) {
	return entitlement.NewSweeper(log, svc, rc.SweepSpec)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	Resolver       auth.IdentityResolver
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig, params.Resolver, params.ServerHandlers...)
}

func startSweeper(lc fx.Lifecycle, sweeper *entitlement.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return sweeper.Stop(ctx)
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
	cfg config.Config,
	usersService *users.Service,
) {
	fmt.Printf("Starting HeartLink %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := usersService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Email); err != nil {
				return err
			}

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
