package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goevery/gigboard/internal/api"
	"github.com/goevery/gigboard/internal/config"
	"github.com/goevery/gigboard/internal/logging"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/persistence"
	"github.com/goevery/gigboard/internal/persistence/memory"
	"github.com/goevery/gigboard/internal/persistence/mongodb"
	"github.com/goevery/gigboard/internal/realtime"
	"github.com/goevery/gigboard/internal/session"
	"github.com/goevery/gigboard/internal/view"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type closer interface {
	Close()
}

type App struct {
	logger   *zap.Logger
	settings config.Settings

	sessions *session.Store
	conn     *realtime.Client
	backend  *marketplace.Service
	account  *view.Account
	notifier view.Notifier

	views []closer
}

func NewApp(logger *zap.Logger, settings config.Settings, storage persistence.Storage) *App {
	sessions := session.NewStore(logger, storage)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	client := api.NewClient(logger, settings.ResolveAPIBaseURL(), httpClient, sessions)
	backend := marketplace.NewService(client)

	rt := settings.ResolveRealtime()
	conn := realtime.NewClient(logger, realtime.Config{
		Endpoint:          rt.Endpoint,
		Enabled:           rt.Enabled,
		ReconnectAttempts: rt.ReconnectAttempts,
		ReconnectDelay:    rt.ReconnectDelay,
	}, realtime.NewWebSocketDialer(nil))

	return &App{
		logger:   logger,
		settings: settings,
		sessions: sessions,
		conn:     conn,
		backend:  backend,
		account:  view.NewAccount(logger, backend, sessions, conn),
		notifier: view.NewLogNotifier(logger),
	}
}

func (a *App) setup(ctx context.Context) error {
	unsubscribe := a.sessions.Subscribe(func(state session.State) {
		if !state.Authenticated {
			a.logger.Warn("session ended")
		}
	})
	defer unsubscribe()

	identity, err := a.authenticate(ctx)
	if err != nil {
		return err
	}

	if err := a.mountViews(ctx, identity); err != nil {
		return err
	}

	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	<-notifyCtx.Done()

	a.logger.Info("stopping dashboard")

	for _, v := range a.views {
		v.Close()
	}
	a.conn.Disconnect()

	a.logger.Info("dashboard stopped")

	return nil
}

// authenticate reuses the stored session while its token is still valid and
// logs in with the configured credentials otherwise.
func (a *App) authenticate(ctx context.Context) (view.Identity, error) {
	if a.sessions.IsAuthenticated(ctx) && !a.sessions.SessionExpired(ctx, time.Now()) {
		user, err := a.sessions.User(ctx)
		if err == nil && user != nil {
			a.logger.Info("restored session", zap.String("userId", user.Id))

			return view.Identity{UserId: user.Id, Role: user.Role}, nil
		}
	}

	if a.settings.Email == "" || a.settings.Password == "" {
		return view.Identity{}, errors.New("no stored session and DASHBOARD_EMAIL/DASHBOARD_PASSWORD are not set")
	}

	user, err := a.account.Login(ctx, a.settings.Email, a.settings.Password)
	if err != nil {
		return view.Identity{}, err
	}

	return view.Identity{UserId: user.Id, Role: user.Role}, nil
}

func (a *App) mountViews(ctx context.Context, identity view.Identity) error {
	dashboard := view.NewDashboard(a.logger, a.backend, a.conn, a.notifier, identity)
	dashboard.OnChange(func(s view.Snapshot[view.DashboardData]) {
		a.logger.Info("dashboard",
			zap.Stringer("state", s.State),
			zap.Int("activeJobs", s.Data.Stats.ActiveJobs),
			zap.Int("applications", s.Data.Stats.Applications),
			zap.Int("recentJobs", len(s.Data.RecentJobs)))
	})

	jobs := view.NewJobs(a.logger, a.backend, a.conn, a.notifier, identity)
	jobs.OnChange(func(s view.Snapshot[[]view.JobRow]) {
		a.logger.Info("jobs",
			zap.Stringer("state", s.State),
			zap.Int("jobs", len(s.Data)))
	})

	applications := view.NewApplications(a.logger, a.backend, a.conn, a.notifier, identity)
	applications.OnChange(func(s view.Snapshot[view.ApplicationsData]) {
		a.logger.Info("applications",
			zap.Stringer("state", s.State),
			zap.Int("applications", len(s.Data.Applications)))
	})

	payments := view.NewPayments(a.logger, a.backend, a.conn, a.notifier, identity)
	payments.OnChange(func(s view.Snapshot[view.PaymentsData]) {
		a.logger.Info("payments",
			zap.Stringer("state", s.State),
			zap.Int("pending", s.Data.Stats.Pending),
			zap.Float64("pendingAmount", s.Data.Stats.PendingAmount))
	})

	a.views = []closer{dashboard, jobs, applications, payments}

	openers := []func(context.Context) error{dashboard.Open, jobs.Open, applications.Open, payments.Open}
	for _, open := range openers {
		if err := open(ctx); err != nil {
			a.logger.Warn("view failed to load", zap.Error(err))
		}
	}

	a.logger.Info("views mounted",
		zap.String("userId", identity.UserId),
		zap.Bool("realtime", a.conn.IsConnected()))

	return nil
}

func newStorage(ctx context.Context, logger *zap.Logger, settings config.Settings) (persistence.Storage, func(), error) {
	if settings.SessionStorage != "mongodb" {
		return memory.NewStorage(), func() {}, nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(settings.MongoDBURI))
	if err != nil {
		return nil, nil, err
	}

	disconnect := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("failed to disconnect from mongodb", zap.Error(err))
		}
	}

	storage := mongodb.NewStorage(client, settings.SessionNamespace)
	if err := storage.Setup(ctx); err != nil {
		disconnect()
		return nil, nil, err
	}

	return storage, disconnect, nil
}

func main() {
	ctx := context.Background()

	settings, err := config.FromEnviron()
	if err != nil {
		log.Fatalf("failed to parse settings from environment: %v", err)
	}

	logger, err := logging.New(settings.LogEncoding, "dashboard")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	storage, closeStorage, err := newStorage(ctx, logger, settings)
	if err != nil {
		logger.Fatal("failed to open session storage", zap.Error(err))
	}
	defer closeStorage()

	app := NewApp(logger, settings, storage)

	err = app.setup(ctx)
	if err != nil {
		logger.Fatal("failed to setup", zap.Error(err))
	}
}
