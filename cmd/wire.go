package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bnema/hfmctl/internal/adapters/remote"
	"github.com/bnema/hfmctl/internal/adapters/remote/httpbridge"
	tomlrepo "github.com/bnema/hfmctl/internal/adapters/repo/toml"
	chainstore "github.com/bnema/hfmctl/internal/adapters/secrets/chain"
	filestore "github.com/bnema/hfmctl/internal/adapters/secrets/file"
	passstore "github.com/bnema/hfmctl/internal/adapters/secrets/pass"
	"github.com/bnema/hfmctl/internal/application"
	"github.com/bnema/hfmctl/internal/config"
	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/bnema/hfmctl/internal/ports"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
)

var errServerURLMissing = &domain.InvalidRequestError{Reason: "server url is not configured (set server.url or --server-url)"}

// app carries everything the commands share. Settings are loaded once flags
// are parsed; adapters are built on first use so local commands never touch
// the secret store or the server.
type app struct {
	v          *viper.Viper
	configPath string
	verbose    bool
	settings   config.Settings

	httpClient *http.Client
	now        func() time.Time
	isTerminal func(fd uintptr) bool
	prompt     func(message string) (string, error)

	secretStore ports.SecretStore
	history     ports.RunRepository
}

func newApp() *app {
	return &app{
		v:          config.New(),
		httpClient: http.DefaultClient,
		now:        time.Now,
		isTerminal: func(fd uintptr) bool { return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) },
		prompt:     promptPassword,
	}
}

func (a *app) load() error {
	settings, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		settings.Log.Level = "debug"
	}
	a.settings = settings

	logtrace.Setup("hfmctl", settings.Log.Level)
	return nil
}

func (a *app) secrets() (ports.SecretStore, error) {
	if a.secretStore != nil {
		return a.secretStore, nil
	}

	s := a.settings.Secrets
	var (
		store ports.SecretStore
		err   error
	)
	switch s.Backend {
	case "pass":
		store = passstore.NewStore(s.PassPrefix)
	case "file":
		if s.EncryptionKey == "" {
			store = filestore.NewStore(s.Path)
		} else {
			store, err = filestore.NewEncryptedStore(s.Path, s.EncryptionKey)
		}
	default:
		store, err = chainstore.NewPassFirstWithFileFallback(s.PassPrefix, s.Path, s.EncryptionKey)
	}
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	a.secretStore = store
	return store, nil
}

// historyRepository returns nil when history is disabled.
func (a *app) historyRepository() (ports.RunRepository, error) {
	if a.history != nil || a.settings.History.Disabled {
		return a.history, nil
	}

	repo, err := tomlrepo.NewHistoryRepository(a.settings.History.Path, a.settings.History.Limit)
	if err != nil {
		return nil, fmt.Errorf("wire history repository: %w", err)
	}

	a.history = repo
	return repo, nil
}

func (a *app) registry(ctx context.Context) (*application.Registry, error) {
	var overrides []domain.Profile
	if path := a.settings.Profile.Path; path != "" {
		repo, err := tomlrepo.NewProfileRepository(path)
		if err != nil {
			return nil, fmt.Errorf("wire profile repository: %w", err)
		}
		profile, err := repo.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load capability profile: %w", err)
		}
		overrides = append(overrides, profile)
	}

	build := a.settings.Server.Build
	for _, override := range overrides {
		if build == "" && override.Build != "" {
			build = override.Build
		}
	}

	return application.NewRegistry(build, overrides...)
}

func (a *app) service(ctx context.Context) (*application.Service, error) {
	if a.settings.Server.URL == "" {
		return nil, errServerURLMissing
	}

	registry, err := a.registry(ctx)
	if err != nil {
		return nil, err
	}

	history, err := a.historyRepository()
	if err != nil {
		return nil, err
	}

	monitor := a.monitorConfig()
	if err := monitor.Classes.Validate(); err != nil {
		return nil, fmt.Errorf("monitor status classes: %w", err)
	}

	surface := httpbridge.Client{
		BaseURL:        a.settings.Server.URL,
		Token:          a.settings.Server.Token,
		HTTPClient:     a.httpClient,
		RequestTimeout: a.settings.Server.RequestTimeout,
	}

	return application.NewService(registry, remote.NewLocator(surface), history, ports.SystemClock{}, monitor), nil
}

func (a *app) monitorConfig() application.MonitorConfig {
	m := a.settings.Monitor
	cfg := application.DefaultMonitorConfig()
	cfg.PollInterval = m.PollInterval
	cfg.InitialDelay = m.InitialDelay
	cfg.EmptyDelay = m.EmptyDelay
	cfg.RetryDelay = m.RetryDelay
	cfg.MaxPollRetries = m.MaxPollRetries
	cfg.Timeout = m.Timeout
	if len(m.InFlight) > 0 || len(m.Failed) > 0 {
		cfg.Classes = domain.StatusClasses{
			InFlight: domain.ParseStatusList(m.InFlight),
			Failed:   domain.ParseStatusList(m.Failed),
		}
	}
	return cfg
}

func (a *app) stdinIsTerminal() bool {
	return a.isTerminal(os.Stdin.Fd())
}
