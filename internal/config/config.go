package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	appDir     = "hfmctl"
	configName = "config"
	configType = "toml"
	envPrefix  = "HFMCTL"
)

// Keys shared with the command layer for flag binding.
const (
	KeyServerURL       = "server.url"
	KeyServerToken     = "server.token"
	KeyServerBuild     = "server.build"
	KeyRequestTimeout  = "server.request_timeout"
	KeyUser            = "auth.user"
	KeyPassword        = "auth.password"
	KeyPasswordRef     = "auth.password_ref"
	KeyCluster         = "auth.cluster"
	KeyProvider        = "auth.provider"
	KeyDomain          = "auth.domain"
	KeyServer          = "auth.server"
	KeyLocale          = "auth.locale"
	KeyAllowAnonymous  = "auth.allow_anonymous"
	KeyPollInterval    = "monitor.poll_interval"
	KeyInitialDelay    = "monitor.initial_delay"
	KeyEmptyDelay      = "monitor.empty_delay"
	KeyRetryDelay      = "monitor.retry_delay"
	KeyMaxPollRetries  = "monitor.max_poll_retries"
	KeyMonitorTimeout  = "monitor.timeout"
	KeyInFlight        = "monitor.in_flight"
	KeyFailed          = "monitor.failed"
	KeySecretsBackend  = "secrets.backend"
	KeySecretsPath     = "secrets.path"
	KeySecretsPrefix   = "secrets.pass_prefix"
	KeySecretsKey      = "secrets.encryption_key"
	KeyHistoryPath     = "history.path"
	KeyHistoryLimit    = "history.limit"
	KeyHistoryDisabled = "history.disabled"
	KeyProfilePath     = "profile.path"
	KeyLogLevel        = "log.level"
	KeyOutput          = "output"
)

type Settings struct {
	Server  ServerSettings  `mapstructure:"server"`
	Auth    AuthSettings    `mapstructure:"auth"`
	Monitor MonitorSettings `mapstructure:"monitor"`
	Secrets SecretsSettings `mapstructure:"secrets"`
	History HistorySettings `mapstructure:"history"`
	Profile ProfileSettings `mapstructure:"profile"`
	Log     LogSettings     `mapstructure:"log"`
	Output  string          `mapstructure:"output" validate:"oneof=json text"`
}

type ServerSettings struct {
	URL            string        `mapstructure:"url" validate:"omitempty,url"`
	Token          string        `mapstructure:"token"`
	Build          string        `mapstructure:"build"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
}

type AuthSettings struct {
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	PasswordRef    string `mapstructure:"password_ref"`
	Cluster        string `mapstructure:"cluster"`
	Provider       string `mapstructure:"provider"`
	Domain         string `mapstructure:"domain"`
	Server         string `mapstructure:"server"`
	Locale         string `mapstructure:"locale"`
	AllowAnonymous bool   `mapstructure:"allow_anonymous"`
}

type MonitorSettings struct {
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	InitialDelay   time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	EmptyDelay     time.Duration `mapstructure:"empty_delay" validate:"gte=0"`
	RetryDelay     time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	MaxPollRetries int           `mapstructure:"max_poll_retries" validate:"gte=0"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	InFlight       []string      `mapstructure:"in_flight"`
	Failed         []string      `mapstructure:"failed"`
}

type SecretsSettings struct {
	Backend       string `mapstructure:"backend" validate:"oneof=chain pass file"`
	Path          string `mapstructure:"path"`
	PassPrefix    string `mapstructure:"pass_prefix"`
	EncryptionKey string `mapstructure:"encryption_key" validate:"omitempty,hexadecimal,len=64"`
}

type HistorySettings struct {
	Path     string `mapstructure:"path"`
	Limit    int    `mapstructure:"limit" validate:"gte=0"`
	Disabled bool   `mapstructure:"disabled"`
}

type ProfileSettings struct {
	Path string `mapstructure:"path"`
}

type LogSettings struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// New returns a viper instance carrying every default, the HFMCTL_ env
// mapping and the config search path.
func New() *viper.Viper {
	v := viper.New()

	dir := defaultDir()
	for _, key := range []string{
		KeyServerURL, KeyServerToken, KeyServerBuild, KeyUser, KeyPassword, KeyPasswordRef, KeyCluster,
		KeyProvider, KeyDomain, KeyServer, KeySecretsKey, KeyProfilePath,
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault(KeyAllowAnonymous, false)
	v.SetDefault(KeyHistoryDisabled, false)
	v.SetDefault(KeyRequestTimeout, 60*time.Second)
	v.SetDefault(KeyLocale, "en")
	v.SetDefault(KeyPollInterval, 2*time.Second)
	v.SetDefault(KeyInitialDelay, time.Duration(0))
	v.SetDefault(KeyEmptyDelay, 2*time.Second)
	v.SetDefault(KeyRetryDelay, 3*time.Second)
	v.SetDefault(KeyMaxPollRetries, 3)
	v.SetDefault(KeyMonitorTimeout, time.Duration(0))
	v.SetDefault(KeyInFlight, []string{"PENDING", "RUNNING", "STARTING", "SCHEDULED_START", "SCHEDULED_STOP"})
	v.SetDefault(KeyFailed, []string{"ABORTED", "STOPPED"})
	v.SetDefault(KeySecretsBackend, "chain")
	v.SetDefault(KeySecretsPath, filepath.Join(dir, "secrets"))
	v.SetDefault(KeySecretsPrefix, "hfmctl")
	v.SetDefault(KeyHistoryPath, filepath.Join(dir, "runs.toml"))
	v.SetDefault(KeyHistoryLimit, 200)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyOutput, "json")

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file (explicit path first) and decodes the
// merged settings.
func Load(v *viper.Viper, path string) (Settings, error) {
	if v == nil {
		v = New()
	}

	if path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	settings.Log.Level = strings.ToLower(settings.Log.Level)
	settings.Output = strings.ToLower(settings.Output)

	if err := Validate(settings); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

func Validate(settings Settings) error {
	if err := validator.New().Struct(settings); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			fields := make([]string, 0, len(invalid))
			for _, fieldErr := range invalid {
				fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Namespace(), fieldErr.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDir)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "."+appDir)
	}
	return "." + appDir
}
