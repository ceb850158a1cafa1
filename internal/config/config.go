package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"meetmed/internal/models"
	"meetmed/internal/scheduling"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig          `yaml:"app"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Backup        BackupConfig       `yaml:"backup"`
	Monitoring    MonitoringConfig   `yaml:"monitoring"`
	Logging       LoggingConfig      `yaml:"logging"`
	API           APIConfig          `yaml:"api"`
	Booking       BookingConfig      `yaml:"booking"`
	Email         EmailConfig        `yaml:"email"`
	Notifications NotificationConfig `yaml:"notifications"`
	Reminders     ReminderConfig     `yaml:"reminders"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path            string `yaml:"path"`
	MigrationsTable string `yaml:"migrations_table"`
	BusyTimeoutMS   int    `yaml:"busy_timeout_ms"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
}

type APIHTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type APIGRPCConfig struct {
	Enabled bool         `yaml:"enabled"`
	Port    int          `yaml:"port"`
	TLS     APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	JWTSecret     string         `yaml:"jwt_secret"`
	Issuer        string         `yaml:"issuer"`
	TokenTTL      time.Duration  `yaml:"token_ttl"`
	LoginAttempts int            `yaml:"login_attempts"`
	LoginWindow   time.Duration  `yaml:"login_window"`
	HeaderAPIKey  string         `yaml:"header_api_key"`
	APIKeys       []APIClientKey `yaml:"api_keys"`
}

// APIClientKey identifies a partner system calling the gRPC API.
type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type BookingConfig struct {
	OpensAt                 string   `yaml:"opens_at"`
	ClosesAt                string   `yaml:"closes_at"`
	HorizonMonths           int      `yaml:"horizon_months"`
	ConflictWindowMinutes   int      `yaml:"conflict_window_minutes"`
	CancellationWindowHours int      `yaml:"cancellation_window_hours"`
	ClosedDays              []string `yaml:"closed_days"`
	Timezone                string   `yaml:"timezone"`
	SlotStepMinutes         int      `yaml:"slot_step_minutes"`
}

type EmailConfig struct {
	Provider    string `yaml:"provider"` // sendgrid or stub
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
}

type NotificationConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	BaseDelay    time.Duration `yaml:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	QueueKey     string        `yaml:"queue_key"`
}

type ReminderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Time    string `yaml:"time"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables already in the environment win.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if len(c.API.Auth.JWTSecret) < 16 {
		return errors.New("api.auth.jwt_secret must be at least 16 characters")
	}

	switch c.Email.Provider {
	case "stub":
	case "sendgrid":
		if c.Email.APIKey == "" {
			return errors.New("email.api_key is required for the sendgrid provider")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}

	if c.API.GRPC.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("grpc api requires at least one api.auth.api_keys entry")
	}

	if c.API.GRPC.TLS.Enabled && (c.API.GRPC.TLS.CertFile == "" || c.API.GRPC.TLS.KeyFile == "") {
		return errors.New("grpc tls requires cert_file and key_file")
	}

	if _, err := scheduling.ParseClock(c.Reminders.Time); err != nil {
		return fmt.Errorf("reminders.time: %w", err)
	}

	_, err := c.Booking.Rules()
	return err
}

// Rules converts the booking section into scheduling rules.
func (b BookingConfig) Rules() (scheduling.Rules, error) {
	rules := scheduling.DefaultRules()

	opens, err := scheduling.ParseClock(b.OpensAt)
	if err != nil {
		return rules, fmt.Errorf("booking.opens_at: %w", err)
	}
	closes, err := scheduling.ParseClock(b.ClosesAt)
	if err != nil {
		return rules, fmt.Errorf("booking.closes_at: %w", err)
	}
	if closes <= opens {
		return rules, errors.New("booking.closes_at must be after opens_at")
	}

	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return rules, fmt.Errorf("booking.timezone: %w", err)
	}

	closed := make([]time.Weekday, 0, len(b.ClosedDays))
	for _, name := range b.ClosedDays {
		day, ok := parseWeekday(name)
		if !ok {
			return rules, fmt.Errorf("booking.closed_days: unknown weekday %q", name)
		}
		closed = append(closed, day)
	}

	rules.OpensAt = opens
	rules.ClosesAt = closes
	rules.HorizonMonths = b.HorizonMonths
	rules.ConflictWindow = time.Duration(b.ConflictWindowMinutes) * time.Minute
	rules.CancellationWindow = time.Duration(b.CancellationWindowHours) * time.Hour
	rules.ClosedDays = closed
	rules.Location = loc
	return rules, nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return d, true
		}
	}
	return 0, false
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "meetmed"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.RequestTimeout == 0 {
		c.API.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.Issuer == "" {
		c.API.Auth.Issuer = c.App.Name
	}
	if c.API.Auth.TokenTTL == 0 {
		c.API.Auth.TokenTTL = 24 * time.Hour
	}
	if c.API.Auth.LoginAttempts == 0 {
		c.API.Auth.LoginAttempts = 5
	}
	if c.API.Auth.LoginWindow == 0 {
		c.API.Auth.LoginWindow = 15 * time.Minute
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	// Booking defaults
	if c.Booking.OpensAt == "" {
		c.Booking.OpensAt = "08:00"
	}
	if c.Booking.ClosesAt == "" {
		c.Booking.ClosesAt = "19:30"
	}
	if c.Booking.HorizonMonths == 0 {
		c.Booking.HorizonMonths = 3
	}
	if c.Booking.ConflictWindowMinutes == 0 {
		c.Booking.ConflictWindowMinutes = 45
	}
	if c.Booking.CancellationWindowHours == 0 {
		c.Booking.CancellationWindowHours = 24
	}
	if c.Booking.ClosedDays == nil {
		c.Booking.ClosedDays = []string{"sunday"}
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Booking.SlotStepMinutes == 0 {
		c.Booking.SlotStepMinutes = models.DefaultSlotStepMinutes
	}

	if c.Email.Provider == "" {
		c.Email.Provider = "stub"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = c.App.Name
	}

	if c.Notifications.MaxRetries == 0 {
		c.Notifications.MaxRetries = 5
	}
	if c.Notifications.BaseDelay == 0 {
		c.Notifications.BaseDelay = 2 * time.Second
	}
	if c.Notifications.MaxDelay == 0 {
		c.Notifications.MaxDelay = time.Minute
	}
	if c.Notifications.PollInterval == 0 {
		c.Notifications.PollInterval = 10 * time.Second
	}
	if c.Notifications.QueueKey == "" {
		c.Notifications.QueueKey = "notifications:queue"
	}

	if c.Reminders.Time == "" {
		c.Reminders.Time = fmt.Sprintf("%02d:00", models.ReminderHour)
	}
}
