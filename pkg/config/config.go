package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		setDefaults()

		// .env is optional; real environment variables win over it
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: could not load .env: %v\n", err)
		}

		viper.SetEnvPrefix("STOOP")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetInt64 returns an int64 config value
func GetInt64(key string) int64 {
	return viper.GetInt64(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// IsProduction reports whether the configured environment is production
func IsProduction() bool {
	env := viper.GetString("environment")
	return env == "production" || env == "prod"
}

// reset clears loaded state so tests can call Init again
func reset() {
	once = sync.Once{}
	initErr = nil
	viper.Reset()
}

func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	switch driver := viper.GetString("database.driver"); driver {
	case "sqlite":
		if viper.GetString("database.path") == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if viper.GetString("database.dsn") == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %q", driver)
	}

	switch backend := viper.GetString("storage.backend"); backend {
	case "filesystem":
	case "supabase":
		if viper.GetString("supabase.url") == "" {
			return fmt.Errorf("supabase.url is required for the supabase storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", backend)
	}

	if err := validateSecrets(); err != nil {
		return err
	}

	if viper.GetInt64("transcription.max_payload_bytes") <= 0 {
		viper.Set("transcription.max_payload_bytes", 25*1024*1024)
	}
	if viper.GetDuration("transcription.timeout") <= 0 {
		viper.Set("transcription.timeout", 60*time.Second)
	}

	return nil
}

// validateSecrets rejects placeholder secrets in production and warns otherwise
func validateSecrets() error {
	placeholders := []string{
		"YOUR_KEY_HERE",
		"YOUR_API_KEY",
		"changeme",
		"CHANGEME",
		"",
	}

	check := func(key, label string) error {
		value := viper.GetString(key)
		for _, placeholder := range placeholders {
			if value == placeholder {
				if IsProduction() {
					return fmt.Errorf("invalid %s: cannot use placeholder values in production", label)
				}
				fmt.Printf("Warning: %s is using a placeholder value\n", label)
				return nil
			}
		}
		return nil
	}

	if err := check("openai.api_key", "OpenAI API key"); err != nil {
		return err
	}

	if viper.GetBool("auth.dev_auth_enabled") && IsProduction() {
		return fmt.Errorf("dev auth cannot be enabled in production")
	}

	if viper.GetString("storage.backend") == "supabase" {
		if err := check("supabase.service_key", "Supabase service key"); err != nil {
			return err
		}
	}

	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "", "filesystem", "supabase":
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	if c.Transcription.MaxPayloadBytes <= 0 {
		c.Transcription.MaxPayloadBytes = 25 * 1024 * 1024
	}

	if c.Transcription.Timeout <= 0 {
		c.Transcription.Timeout = 60 * time.Second
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.public_url", "http://localhost:8080")
	viper.SetDefault("server.read_timeout", 90*time.Second)
	viper.SetDefault("server.write_timeout", 90*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_upload_bytes", 110*1024*1024)

	// Database defaults
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "./data/stoop.db")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.verbose", false)

	// Storage defaults
	viper.SetDefault("storage.backend", "filesystem")
	viper.SetDefault("storage.base_path", "./data/media")
	viper.SetDefault("storage.bucket", "media")
	viper.SetDefault("storage.temp_dir", os.TempDir())
	viper.SetDefault("storage.temp_max_age", time.Hour)

	// Supabase defaults
	viper.SetDefault("supabase.url", "")
	viper.SetDefault("supabase.anon_key", "")
	viper.SetDefault("supabase.service_key", "")
	viper.SetDefault("supabase.jwks_url", "")

	// OpenAI defaults
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.model", "whisper-1")

	// Transcription defaults
	viper.SetDefault("transcription.timeout", 60*time.Second)
	viper.SetDefault("transcription.max_payload_bytes", 25*1024*1024)

	// Intake defaults
	viper.SetDefault("intake.max_file_size", 100*1024*1024)
	viper.SetDefault("intake.ffmpeg_path", "ffmpeg")
	viper.SetDefault("intake.ffprobe_path", "ffprobe")
	viper.SetDefault("intake.probe_timeout", 15*time.Second)

	// Capture defaults
	viper.SetDefault("capture.input_format", defaultCaptureFormat())
	viper.SetDefault("capture.device", defaultCaptureDevice())
	viper.SetDefault("capture.sample_rate", 16000)

	// Auth defaults
	viper.SetDefault("auth.dev_auth_enabled", false)
	viper.SetDefault("auth.dev_auth_token", "")
	viper.SetDefault("auth.session_cookie", "stoop_session")
	viper.SetDefault("auth.admin_emails", []string{})

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.feed_ttl", 10*time.Minute)
	viper.SetDefault("cache.page_ttl", 1*time.Minute)
	viper.SetDefault("cache.max_size_mb", 32)

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.inbox_rps", 1)
	viper.SetDefault("rate_limiting.inbox_burst", 3)
	viper.SetDefault("rate_limiting.login_rps", 1)
	viper.SetDefault("rate_limiting.login_burst", 5)
	viper.SetDefault("rate_limiting.admin_rps", 10)
	viper.SetDefault("rate_limiting.admin_burst", 20)

	// Site defaults
	viper.SetDefault("site.title", "Stoop Politics")
	viper.SetDefault("site.description", "Conversations from the stoop about the politics next door.")
	viper.SetDefault("site.author", "Stoop Politics")
	viper.SetDefault("site.email", "")
	viper.SetDefault("site.image_url", "")
}

// defaultCaptureFormat returns the ffmpeg input device format for this platform
func defaultCaptureFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "pulse"
	}
}

func defaultCaptureDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return ":0"
	case "windows":
		return "audio=default"
	default:
		return "default"
	}
}
