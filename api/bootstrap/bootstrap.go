package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	"github.com/tbeaudouin05/fintrack-client/api/config"
	"github.com/tbeaudouin05/fintrack-client/api/database"
	"github.com/tbeaudouin05/fintrack-client/api/events"
	"github.com/tbeaudouin05/fintrack-client/api/freemium"
	"github.com/tbeaudouin05/fintrack-client/api/imaging"
	"github.com/tbeaudouin05/fintrack-client/api/logging"
	payapp "github.com/tbeaudouin05/fintrack-client/api/services/payment/app"
	paygw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
	httpgw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway/httpapi"
)

// App owns every process-wide component. It is created once per process and
// reset on logout.
type App struct {
	Config   *config.Config
	Store    database.Store
	Bus      *events.Bus
	Sessions *client.SessionStore
	Storm    *client.StormGuard
	Client   *client.Client
	Gateway  paygw.PaymentGateway
	Freemium *freemium.Cache
	Checkout payapp.Service

	logger *slog.Logger
	closer io.Closer
}

// Options override collaborators, mostly for tests. Zero values are derived from the config.
type Options struct {
	Store      database.Store
	Navigator  client.Navigator
	HTTPClient *http.Client
	Gateway    paygw.PaymentGateway
	Logger     *slog.Logger
}

// New wires the access layer, freemium cache and checkout service from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Bus: events.New(), logger: logger}

	a.Store = opts.Store
	if a.Store == nil {
		sqlStore, err := database.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		a.Store = sqlStore
		a.closer = sqlStore
	}

	adminSecret := cfg.AdminSecret
	if adminSecret == "" {
		adminSecret = config.DefaultAdminSecret
	}
	a.Sessions = client.NewSessionStore(a.Store, logger)
	a.Storm = client.NewStormGuard(cfg.AuthStormRedirectDelay)
	a.Client = client.New(client.Config{
		BaseURL:    cfg.BaseURL,
		APIPrefix:  cfg.APIPrefix,
		Timeout:    cfg.HTTPTimeout,
		HTTPClient: opts.HTTPClient,
		Auth:       client.NewAuthContext(a.Sessions, adminSecret),
		Interceptor: client.NewInterceptor(client.InterceptorConfig{
			Storm:     a.Storm,
			Sessions:  a.Sessions,
			Bus:       a.Bus,
			Navigator: opts.Navigator,
			LoginPath: cfg.LoginPath,
			Logger:    logger,
		}),
		Logger: logger,
	})

	a.Gateway = opts.Gateway
	if a.Gateway == nil {
		a.Gateway = httpgw.New(a.Client)
	}
	a.Freemium = freemium.New(a.Store, a.Bus, freemium.WithFetcher(a.Gateway), freemium.WithLogger(logger))
	a.Checkout = payapp.NewService(a.Gateway, payapp.Deps{
		Store:         a.Store,
		Refresher:     a.Freemium,
		Compressor:    imaging.NewCompressor(cfg.ProofMaxWidth, cfg.ProofQuality),
		ProofMaxBytes: cfg.ProofMaxBytes,
		Logger:        logger,
	})
	return a, nil
}

// Login signs in, persists the session and syncs the freemium state.
func (a *App) Login(ctx context.Context, email, password string) (client.Session, error) {
	resp, err := a.Gateway.Login(ctx, paygw.LoginRequest{Email: email, Password: password})
	if err != nil {
		return client.Session{}, err
	}
	sess := client.Session{UserID: resp.UserID, SessionToken: resp.SessionToken, Role: resp.Role}
	if err := a.Sessions.Save(ctx, sess); err != nil {
		return client.Session{}, fmt.Errorf("failed to persist session: %w", err)
	}
	a.Storm.Reset()
	if err := a.Freemium.Refresh(ctx); err != nil {
		a.logger.Warn("freemium sync after login failed", "err", err)
	}
	a.logger.Info("signed in", "user_id", sess.UserID, "role", sess.Role)
	return a.Sessions.Load(ctx), nil
}

// Logout clears the session and resets the process-wide state.
func (a *App) Logout(ctx context.Context) error {
	sess := a.Sessions.Load(ctx)
	if f := a.Checkout.Active(sess.UserID); f != nil {
		f.Close()
	}
	if err := a.Sessions.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	a.Storm.Reset()
	a.Freemium.Reset(ctx)
	a.logger.Info("signed out", "user_id", sess.UserID)
	return nil
}

// Close delivers a pending session-expiry redirect, then releases resources.
func (a *App) Close() error {
	a.Storm.Flush()
	a.Bus.Close()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

var app *App
var initOnce sync.Once
var initErr error

// Init loads the config if needed and builds the process App.
func Init(ctx context.Context, opts Options) error {
	// If an App has already been injected (e.g., tests), do not override it.
	if app != nil {
		return nil
	}
	var err error
	if config.AppConfig == nil {
		config.AppConfig, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if opts.Logger == nil {
		opts.Logger = logging.SetDefault(logging.Options{
			Level:  config.AppConfig.LogLevel,
			Format: config.AppConfig.LogFormat,
		})
	}
	app, err = New(ctx, config.AppConfig, opts)
	return err
}

func GetApp() *App { return app }

// SetApp allows tests to inject a prepared App.
func SetApp(a *App) { app = a }

// Ensure runs Init() once per process and returns any initialization error.
func Ensure(ctx context.Context, opts Options) error {
	initOnce.Do(func() {
		initErr = Init(ctx, opts)
	})
	return initErr
}
