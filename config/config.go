// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configDir      = pflag.String("config", ".", "Directory containing config.toml")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDatabases = []string{"sqlite", "postgres"}
)

// ErrNoSecret is returned when no JWT secret is configured. A freshly
// generated one is printed for the operator to paste in.
var ErrNoSecret = errors.New("no jwt secret configured")

var keys = []string{
	"app.log_level",

	"host.port",
	"host.public_url",
	"host.frontend_url",
	"host.cors_origins",
	"host.ssl.enabled",
	"host.ssl.certificate_path",
	"host.ssl.certificate_key_path",

	"database.type",
	"database.dsn",

	"jwt.secret",
	"jwt.session_ttl",

	"google.client_id",
	"google.client_secret",
	"google.redirect_url",
	"google.folder_name",

	"upload.max_size",
	"upload.allowed_types",

	"invite.ttl",
	"invite.cleanup_interval",

	"mail.enabled",
	"mail.host",
	"mail.port",
	"mail.sender_address",
	"mail.password",

	"security.rate_limit",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup parses the command line flags and loads the configuration. Function
// will return an error if something is critically wrong and the application
// can't run because of that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	err := Load(*configDir)
	if errors.Is(err, ErrNoSecret) {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

// Load reads config.toml from dir, if present, and the environment. Every
// key can be set from an env var named after it, e.g. GOOGLE_CLIENT_ID.
func Load(dir string) error {
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, k := range keys {
		v.BindEnv(k)
	}

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.public_url", "http://localhost:8080")
	v.SetDefault("host.frontend_url", "http://localhost:5173")
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("jwt.session_ttl", time.Hour)

	v.SetDefault("google.folder_name", "VidCollab Uploads")

	v.SetDefault("upload.max_size", 100)
	v.SetDefault("upload.allowed_types", []string{"video/mp4", "video/quicktime", "video/x-msvideo"})

	v.SetDefault("invite.ttl", 7*24*time.Hour)
	v.SetDefault("invite.cleanup_interval", time.Hour)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("security.rate_limit", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		fmt.Println("[WARNING]: No config.toml found, using defaults and environment variables only")
	}

	if err := validate(); err != nil {
		return err
	}

	// Lists set through env vars arrive as one comma separated string
	for _, k := range []string{"host.cors_origins", "upload.allowed_types"} {
		if raw, ok := v.Get(k).(string); ok {
			v.Set(k, splitList(raw))
		}
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("host.frontend_url") == "" {
		return errors.New("host.frontend_url can't be empty")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDatabases, v.GetString("database.type")) {
		return errors.New("invalid database type provided")
	}

	if v.GetString("database.type") == "postgres" && v.GetString("database.dsn") == "" {
		return errors.New("database.dsn is required for postgres")
	}

	if v.GetString("jwt.secret") == "" {
		return ErrNoSecret
	}

	if v.GetDuration("jwt.session_ttl") <= 0 {
		return errors.New("jwt.session_ttl must be positive")
	}

	if v.GetString("google.client_id") == "" || v.GetString("google.client_secret") == "" {
		return errors.New("google.client_id and google.client_secret are required")
	}

	if v.GetString("google.redirect_url") == "" {
		return errors.New("google.redirect_url can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if len(v.GetStringSlice("upload.allowed_types")) == 0 {
		return errors.New("upload.allowed_types can't be empty")
	}

	if v.GetDuration("invite.ttl") <= 0 || v.GetDuration("invite.cleanup_interval") <= 0 {
		return errors.New("invite.ttl and invite.cleanup_interval must be positive")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" || v.GetString("mail.sender_address") == "" {
			return errors.New("mail.host and mail.sender_address are required when mail is enabled")
		}
	} else {
		fmt.Println("[WARNING]: Mail delivery is disabled. Notifications will only be logged")
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
