package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/bnema/streamwatch/internal/adapters/notify/webhook"
	"github.com/bnema/streamwatch/internal/adapters/recovery/browser"
	"github.com/bnema/streamwatch/internal/adapters/reddit"
	statusadapter "github.com/bnema/streamwatch/internal/adapters/render/status"
	tomlrepo "github.com/bnema/streamwatch/internal/adapters/repo/toml"
	chainstore "github.com/bnema/streamwatch/internal/adapters/secrets/chain"
	filestore "github.com/bnema/streamwatch/internal/adapters/secrets/file"
	passstore "github.com/bnema/streamwatch/internal/adapters/secrets/pass"
	"github.com/bnema/streamwatch/internal/adapters/socket/ws"
	"github.com/bnema/streamwatch/internal/adapters/store/jsonfs"
	"github.com/bnema/streamwatch/internal/application"
	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

const (
	secretsBackendChain = "chain"
	secretsBackendFile  = "file"
	secretsBackendPass  = "pass"
)

type app struct {
	cfg            *viper.Viper
	accounts       *application.AccountService
	auth           ports.Authenticator
	store          *jsonfs.Store
	statusRenderer func(application.Status, statusadapter.RenderOptions) (string, error)
	httpClient     *http.Client
	clock          ports.Clock
}

func wireApp(cfg *viper.Viper) (*app, error) {
	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}

	secretStore, err := wireSecretStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	httpClient := http.DefaultClient
	clock := ports.SystemClock{}
	auth := reddit.PasswordGrant{
		BaseURL:        cfg.GetString("reddit.auth_url"),
		HTTPClient:     httpClient,
		RequestTimeout: cfg.GetDuration("reddit.request_timeout"),
		Clock:          clock,
	}

	return &app{
		cfg:            cfg,
		accounts:       application.NewAccountService(repo, secretStore, auth, clock),
		auth:           auth,
		store:          jsonfs.NewStore(cfg.GetString("data.dir")),
		statusRenderer: statusadapter.Render,
		httpClient:     httpClient,
		clock:          clock,
	}, nil
}

func wireSecretStore(cfg *viper.Viper) (ports.SecretStore, error) {
	dir := cfg.GetString("secrets.dir")
	prefix := cfg.GetString("secrets.pass_prefix")

	switch backend := cfg.GetString("secrets.backend"); backend {
	case secretsBackendChain, "":
		return chainstore.NewPassFirstWithFileFallback(prefix, dir)
	case secretsBackendFile:
		return filestore.NewStore(dir), nil
	case secretsBackendPass:
		return passstore.NewStore(prefix), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", backend)
	}
}

func (a *app) accountID() domain.AccountID {
	return domain.AccountID(a.cfg.GetString("reddit.account"))
}

// sessionFactory builds everything one bot session needs: an authenticated
// client, the three sources, the connection manager and the dispatcher.
func (a *app) sessionFactory() application.SessionFactory {
	return func(ctx context.Context, state *application.BotState, logger zerolog.Logger) (*application.Session, error) {
		creds, err := a.accounts.Credentials(ctx, a.accountID())
		if err != nil {
			return nil, err
		}

		client := reddit.NewClient(reddit.Config{
			APIURL:         a.cfg.GetString("reddit.api_url"),
			SocketInfoURL:  a.cfg.GetString("reddit.socket_info_url"),
			HTTPClient:     a.httpClient,
			RequestTimeout: a.cfg.GetDuration("reddit.request_timeout"),
		}, a.auth, creds, a.clock)

		self, err := client.Identity(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve bot identity: %w", err)
		}
		logger.Info().Str("account", self).Msg("session_authenticated")

		publisher := a.cfg.GetString("feed.publisher")
		var notifier ports.Notifier
		if url := a.cfg.GetString("webhook.url"); url != "" {
			notifier = webhook.Notifier{
				URL:        url,
				Username:   a.cfg.GetString("webhook.username"),
				HTTPClient: a.httpClient,
			}
		}
		announcer := application.NewAnnouncer(client, notifier, state, publisher, logger)
		live := application.NewLiveFeed(client, announcer, state, publisher, a.cfg.GetStringSlice("feed.subreddits"), logger)
		inbox := application.NewInboxFeed(client, logger)
		threads := application.NewThreadPoller(client, state, self, logger)

		var recovery ports.RecoveryBrowser
		var recoveryBrowser *browser.Browser
		if a.cfg.GetBool("recovery.enabled") {
			recoveryBrowser = browser.New(browser.Config{
				ControlURL:        a.cfg.GetString("recovery.control_url"),
				ExecPath:          a.cfg.GetString("recovery.exec_path"),
				Headless:          a.cfg.GetBool("recovery.headless"),
				PageURL:           a.cfg.GetString("recovery.page_url"),
				NavigationTimeout: a.cfg.GetDuration("recovery.navigation_timeout"),
			})
			recovery = recoveryBrowser
		}

		connections := application.NewConnectionManager(state, application.ConnectionManagerOptions{
			Resolver: client,
			Dialer: ws.Dialer{
				HandshakeTimeout: a.cfg.GetDuration("socket.handshake_timeout"),
				Header:           http.Header{"User-Agent": []string{creds.UserAgent}},
			},
			Browser:        recovery,
			Clock:          a.clock,
			Self:           self,
			ReceiveTimeout: a.cfg.GetDuration("socket.receive_timeout"),
			Logger:         logger,
		})
		dispatcher := application.NewDispatcher(state, client, client, a.cfg.GetInt("commands.max_length"), logger)

		pipeline := application.NewPipeline(state, a.store, application.PipelineOptions{
			Live:        live,
			Inbox:       inbox,
			Threads:     threads,
			Connections: connections,
			Dispatcher:  dispatcher,
			Logger:      logger,
		})

		return &application.Session{
			Pipeline: pipeline,
			Close: func() error {
				err := connections.Close()
				if recoveryBrowser != nil {
					err = errors.Join(err, recoveryBrowser.Close())
				}
				return err
			},
		}, nil
	}
}
