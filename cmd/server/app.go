package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jrsteele09/go-rift-portal/accounts"
	"github.com/jrsteele09/go-rift-portal/accounts/repogorm"
	"github.com/jrsteele09/go-rift-portal/accounts/repomem"
	"github.com/jrsteele09/go-rift-portal/imagetools"
	"github.com/jrsteele09/go-rift-portal/internal/config"
	"github.com/jrsteele09/go-rift-portal/internal/events"
	"github.com/jrsteele09/go-rift-portal/internal/metrics"
	"github.com/jrsteele09/go-rift-portal/internal/scheduler"
	"github.com/jrsteele09/go-rift-portal/internal/storage"
	"github.com/jrsteele09/go-rift-portal/navigation"
	"github.com/jrsteele09/go-rift-portal/notify"
	"github.com/jrsteele09/go-rift-portal/server"
	"github.com/jrsteele09/go-rift-portal/server/authflowrepo"
	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	mcpSSEPath     = "/mcp/sse"
	mcpMessagePath = "/mcp/message"
	authFlowTTL    = 10 * time.Minute
)

// app owns everything the web server needs and closes it again on shutdown
type app struct {
	handler  http.Handler
	storage  sessions.Storage
	db       *gorm.DB
	bus      *events.Bus
	janitors []*scheduler.Janitor
}

// authFlowSweeper lets the janitor purge abandoned external sign-in states
type authFlowSweeper struct {
	repo authflowrepo.Repo
}

func (s authFlowSweeper) CleanupExpired(context.Context) (int, error) {
	return s.repo.Purge(), nil
}

func newApp(ctx context.Context, c config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to release resources after startup error")
			}
		}
	}()

	if err := config.ValidateSecurity(c); err != nil {
		return nil, err
	}

	table, err := loadRouteTable(c.GetRoutesFile())
	if err != nil {
		return nil, err
	}

	if c.GetSessionStore() == sessions.DriverSQLite || c.GetAccountsStore() == "sqlite" {
		if a.db, err = storage.OpenSQLite(c.GetSQLitePath()); err != nil {
			return nil, err
		}
	}

	a.storage, err = sessions.NewStorage(ctx, sessions.Config{
		Driver:  c.GetSessionStore(),
		IdleTTL: c.GetSessionIdleTTL(),
		Redis: sessions.RedisConfig{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
			Prefix:   c.GetRedisPrefix(),
		},
	}, sessions.Dependencies{DB: a.db})
	if err != nil {
		return nil, err
	}

	var repo accounts.Repo = repomem.New()
	if c.GetAccountsStore() == "sqlite" {
		if repo, err = repogorm.New(a.db); err != nil {
			return nil, err
		}
	}

	m := metrics.New()
	center := notify.NewCenter(a.storage)
	a.bus = events.New()
	if err := events.RegisterAudit(a.bus); err != nil {
		return nil, err
	}
	if err := events.RegisterToasts(a.bus, center); err != nil {
		return nil, err
	}

	unsplash := imagetools.NewUnsplash(c.GetUnsplashBaseURL(), c.GetUnsplashAccessKey(), c.GetUnsplashTimeout())
	tools := imagetools.NewDispatcher(imagetools.NewNoteStore(), unsplash)
	tools.Observe(m.ObserveToolCall)

	authFlows := authflowrepo.NewInMemoryRepo(authFlowTTL)
	deps := server.Dependencies{
		Accounts:  repo,
		Events:    a.bus,
		Metrics:   m,
		AuthFlows: authFlows,
		Tools:     tools,
		Gallery:   imagetools.NewGallery(unsplash),
	}
	if c.GetMCPSSEEnabled() {
		deps.MCP = imagetools.NewSSEServer(imagetools.NewMCPServer(tools), c.GetBaseURL(), mcpSSEPath, mcpMessagePath)
		deps.MCPPaths = [2]string{mcpSSEPath, mcpMessagePath}
	}

	if expirer, ok := a.storage.(sessions.Expirer); ok {
		if err := a.schedule(c.GetSessionCleanupSchedule(), expirer, m.ObserveSweep); err != nil {
			return nil, err
		}
	}
	if err := a.schedule(c.GetSessionCleanupSchedule(), authFlowSweeper{repo: authFlows}, nil); err != nil {
		return nil, err
	}

	srv, err := server.New(c, navigation.NewGuard(table), a.storage, center, deps)
	if err != nil {
		return nil, err
	}
	a.handler = srv
	return a, nil
}

func (a *app) schedule(spec string, expirer sessions.Expirer, onSweep func(int)) error {
	j, err := scheduler.NewJanitor(spec, expirer, onSweep)
	if err != nil {
		return err
	}
	j.Start()
	a.janitors = append(a.janitors, j)
	return nil
}

func loadRouteTable(path string) (*navigation.Table, error) {
	if path == "" {
		return navigation.DefaultTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route table: %w", err)
	}
	defer f.Close()
	log.Info().Str("file", path).Msg("loading route table")
	return navigation.LoadTable(f)
}

// Close stops background work and releases storage
func (a *app) Close() error {
	if a == nil {
		return nil
	}
	for _, j := range a.janitors {
		j.Stop()
	}
	if a.bus != nil {
		a.bus.Wait()
	}
	var errs []error
	if a.storage != nil {
		errs = append(errs, a.storage.Close())
	}
	if a.db != nil {
		errs = append(errs, storage.Close(a.db))
	}
	return errors.Join(errs...)
}
