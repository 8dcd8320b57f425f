package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Supabase      SupabaseConfig      `mapstructure:"supabase"`
	OpenAI        OpenAIConfig        `mapstructure:"openai"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Intake        IntakeConfig        `mapstructure:"intake"`
	Capture       CaptureConfig       `mapstructure:"capture"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Cache         CacheConfig         `mapstructure:"cache"`
	RateLimiting  RateLimitConfig     `mapstructure:"rate_limiting"`
	Site          SiteConfig          `mapstructure:"site"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	PublicURL       string        `mapstructure:"public_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"` // sqlite or postgres
	Path    string `mapstructure:"path"`   // sqlite file
	DSN     string `mapstructure:"dsn"`    // postgres connection string
	Verbose bool   `mapstructure:"verbose"`
}

// StorageConfig selects and configures the object store
type StorageConfig struct {
	Backend    string        `mapstructure:"backend"` // filesystem or supabase
	BasePath   string        `mapstructure:"base_path"`
	Bucket     string        `mapstructure:"bucket"`
	TempDir    string        `mapstructure:"temp_dir"`
	TempMaxAge time.Duration `mapstructure:"temp_max_age"` // spooled audio older than this is swept
}

// SupabaseConfig contains Supabase project settings
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	AnonKey    string `mapstructure:"anon_key"`
	ServiceKey string `mapstructure:"service_key"`
	JWKSURL    string `mapstructure:"jwks_url"`
}

// OpenAIConfig contains hosted transcription API settings
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// TranscriptionConfig contains orchestrator limits
type TranscriptionConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxPayloadBytes int64         `mapstructure:"max_payload_bytes"`
}

// IntakeConfig contains audio file intake settings
type IntakeConfig struct {
	MaxFileSize  int64         `mapstructure:"max_file_size"`
	FFmpegPath   string        `mapstructure:"ffmpeg_path"`
	FFprobePath  string        `mapstructure:"ffprobe_path"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// CaptureConfig contains microphone capture settings
type CaptureConfig struct {
	InputFormat string `mapstructure:"input_format"`
	Device      string `mapstructure:"device"`
	SampleRate  int    `mapstructure:"sample_rate"`
}

// AuthConfig contains admin authentication settings
type AuthConfig struct {
	DevAuthEnabled bool     `mapstructure:"dev_auth_enabled"`
	DevAuthToken   string   `mapstructure:"dev_auth_token"`
	SessionCookie  string   `mapstructure:"session_cookie"`
	AdminEmails    []string `mapstructure:"admin_emails"`
}

// CacheConfig contains response cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	FeedTTL   time.Duration `mapstructure:"feed_ttl"`
	PageTTL   time.Duration `mapstructure:"page_ttl"`
	MaxSizeMB int64         `mapstructure:"max_size_mb"`
}

// RateLimitConfig contains per-client rate limits in requests per second
type RateLimitConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	InboxRPS   int  `mapstructure:"inbox_rps"`
	InboxBurst int  `mapstructure:"inbox_burst"`
	LoginRPS   int  `mapstructure:"login_rps"`
	LoginBurst int  `mapstructure:"login_burst"`
	AdminRPS   int  `mapstructure:"admin_rps"`
	AdminBurst int  `mapstructure:"admin_burst"`
}

// SiteConfig contains public branding used by the page and feed
type SiteConfig struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Author      string `mapstructure:"author"`
	Email       string `mapstructure:"email"`
	ImageURL    string `mapstructure:"image_url"`
}
