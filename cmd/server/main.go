// Command kanban-server serves the board HTTP API, the board change feed and
// the gRPC health probe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/and161185/dittokanban/internal/cache"
	"github.com/and161185/dittokanban/internal/config"
	"github.com/and161185/dittokanban/internal/limiter"
	"github.com/and161185/dittokanban/internal/migrate"
	"github.com/and161185/dittokanban/internal/repository"
	"github.com/and161185/dittokanban/internal/repository/memory"
	"github.com/and161185/dittokanban/internal/repository/postgres"
	"github.com/and161185/dittokanban/internal/server/events"
	"github.com/and161185/dittokanban/internal/server/httpapi"
	"github.com/and161185/dittokanban/internal/server/probe"
	"github.com/and161185/dittokanban/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// stores is the persistence chosen by the storage driver.
type stores struct {
	boards   repository.BoardRepository
	columns  repository.ColumnRepository
	tasks    repository.TaskRepository
	users    repository.UserRepository
	accounts repository.AccountRepository
	lim      limiter.Limiter
	ping     probe.Check // nil when there is nothing to check
	close    func()
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	a := cfg.Auth
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on exit")
		m := memory.New()
		return &stores{
			boards: m.Boards(), columns: m.Columns(), tasks: m.Tasks(),
			users: m.Users(), accounts: m.Accounts(),
			lim:   limiter.NewMemory(a.Window, a.MaxFails, a.BlockFor),
			close: func() {},
		}, nil
	}

	if err := migrate.Up(ctx, cfg.Storage.DSN, log); err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	db, err := postgres.Open(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &stores{
		boards:   postgres.NewBoardRepo(db),
		columns:  postgres.NewColumnRepo(db),
		tasks:    postgres.NewTaskRepo(db),
		users:    postgres.NewUserRepo(db),
		accounts: postgres.NewAccountRepo(db),
		lim:      limiter.NewPG(db.Pool, limiter.Rules{Window: a.Window, MaxFails: a.MaxFails, BlockFor: a.BlockFor}),
		ping:     db.Ping,
		close:    db.Close,
	}, nil
}

// purgeLimiter drops stale sign-in bookkeeping until ctx is done.
func purgeLimiter(ctx context.Context, p limiter.Purger, idle time.Duration, log *zap.Logger) {
	t := time.NewTicker(idle)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.Purge(ctx, idle)
			if err != nil {
				log.Warn("purge sign-in limiter", zap.Error(err))
				continue
			}
			log.Debug("purged sign-in limiter", zap.Int64("rows", n))
		}
	}
}

// runMigrate handles "kanban-server migrate up|down|version".
func runMigrate(args []string) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("dsn", os.Getenv("KANBAN_DSN"), "PostgreSQL DSN")
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kanban-server migrate up|down|version -dsn DSN")
		return 2
	}
	cmd := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	var err error
	switch cmd {
	case "up":
		err = migrate.Up(ctx, *dsn, logger)
	case "down":
		err = migrate.Down(ctx, *dsn, logger)
	case "version":
		var v int64
		if v, err = migrate.Version(ctx, *dsn, logger); err == nil {
			fmt.Println(v)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown migrate command %q\n", cmd)
		return 2
	}
	if err != nil {
		logger.Error("migrate", zap.String("cmd", cmd), zap.Error(err))
		return 1
	}
	return 0
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		os.Exit(runMigrate(os.Args[2:]))
	}

	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	defer st.close()

	hub := events.NewHub(logger)
	go hub.Run(ctx)

	boardOpts := []service.BoardOption{service.WithBoardNotifier(hub), service.WithBoardLogger(logger)}
	var boardCache *cache.BoardLists
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		boardCache = cache.NewBoardLists(rdb, cfg.Redis.TTL)
		boardOpts = append(boardOpts, service.WithBoardCache(boardCache))
	}

	svc := httpapi.Services{
		Auth:    service.NewAuthService(st.accounts, []byte(cfg.Auth.JWTKey), cfg.Auth.AccessTTL, st.lim, service.WithAuthLogger(logger)),
		Users:   service.NewUserService(st.users),
		Boards:  service.NewBoardService(st.boards, st.columns, st.tasks, boardOpts...),
		Columns: service.NewColumnService(st.boards, st.columns, hub),
		Tasks:   service.NewTaskService(st.boards, st.columns, st.tasks, hub),
	}

	if p, ok := st.lim.(limiter.Purger); ok {
		go purgeLimiter(ctx, p, cfg.Auth.Window+cfg.Auth.BlockFor, logger)
	}

	opts := httpapi.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		StaticDir:      cfg.HTTP.StaticDir,
		Hub:            hub,
		SecureCookies:  cfg.HTTP.SecureCookies,
	}
	if cfg.HTTP.RatePerSecond > 0 {
		v := limiter.NewVisitors(rate.Limit(cfg.HTTP.RatePerSecond), cfg.HTTP.RateBurst, 10*time.Minute)
		opts.Visitors = v
		go func() {
			t := time.NewTicker(time.Minute)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					v.Sweep()
				}
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.New(svc, opts, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var pr *probe.Probe
	if cfg.Probe.Addr != "" {
		pr = probe.New(logger, cfg.Probe.Reflection)
		if st.ping != nil {
			pr.AddCheck("postgres", st.ping)
		}
		if boardCache != nil {
			pr.AddCheck("redis", boardCache.Ping)
		}
		lis, err := net.Listen("tcp", cfg.Probe.Addr)
		if err != nil {
			logger.Fatal("probe listen", zap.Error(err))
		}
		go pr.Watch(ctx, cfg.Probe.Interval)
		go func() {
			logger.Info("probe listening", zap.String("addr", cfg.Probe.Addr))
			errCh <- pr.Serve(lis)
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		stop()
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if pr != nil {
		pr.Stop(cfg.HTTP.ShutdownGrace)
	}
	logger.Info("shutdown complete")
}
