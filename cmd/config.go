package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bnema/streamwatch/internal/adapters/recovery/browser"
	"github.com/bnema/streamwatch/internal/adapters/reddit"
	"github.com/bnema/streamwatch/internal/application"
)

const (
	configDirName  = ".streamwatch"
	configName     = "config"
	configType     = "toml"
	envPrefix      = "STREAMWATCH"
	defaultAccount = "main"
)

func loadConfig(path string) (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(homeDir, configDirName)

	cfg := viper.New()
	setDefaults(cfg, base)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		return cfg, nil
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(base)
	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return cfg, nil
}

func setDefaults(cfg *viper.Viper, base string) {
	cfg.SetDefault("data.dir", filepath.Join(base, "data"))
	cfg.SetDefault("accounts.path", filepath.Join(base, "accounts.toml"))
	cfg.SetDefault("secrets.backend", secretsBackendChain)
	cfg.SetDefault("secrets.dir", filepath.Join(base, "secrets"))
	cfg.SetDefault("secrets.pass_prefix", "streamwatch")

	cfg.SetDefault("reddit.account", defaultAccount)
	cfg.SetDefault("reddit.auth_url", reddit.DefaultAuthURL)
	cfg.SetDefault("reddit.api_url", reddit.DefaultAPIURL)
	cfg.SetDefault("reddit.socket_info_url", reddit.DefaultSocketInfoURL)
	cfg.SetDefault("reddit.request_timeout", "30s")

	cfg.SetDefault("feed.publisher", "JCrayZ")
	cfg.SetDefault("feed.subreddits", []string{"RedditSessions"})
	cfg.SetDefault("loop.interval", application.DefaultLoopInterval.String())
	cfg.SetDefault("loop.restart_delay", application.DefaultRestartDelay.String())
	cfg.SetDefault("socket.receive_timeout", application.DefaultReceiveTimeout.String())
	cfg.SetDefault("socket.handshake_timeout", "15s")
	cfg.SetDefault("commands.max_length", application.DefaultMaxCommandLength)

	cfg.SetDefault("recovery.enabled", true)
	cfg.SetDefault("recovery.control_url", "")
	cfg.SetDefault("recovery.exec_path", "")
	cfg.SetDefault("recovery.headless", true)
	cfg.SetDefault("recovery.page_url", browser.DefaultPageURL)
	cfg.SetDefault("recovery.navigation_timeout", "45s")

	cfg.SetDefault("webhook.url", "")
	cfg.SetDefault("webhook.username", "streamwatch")

	cfg.SetDefault("logging.level", "info")
	cfg.SetDefault("logging.format", "console")
	cfg.SetDefault("logging.file", "")
}
