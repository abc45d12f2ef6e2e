package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is where the config file is looked up when neither --config
// nor CTWEB_CONFIG is given.
const DefaultPath = "./config.ini"

// EnvPrefix prefixes every environment override, e.g. CTWEB_DBHOST.
const EnvPrefix = "CTWEB"

// section is the INI section all keys live in.
const section = "default."

type Config struct {
	DBName         string
	DBUser         string
	DBPass         string
	DBHost         string
	DBPort         int
	DBSchema       string
	DBMaxConns     int32
	DBMinConns     int32
	APIPrefix      string
	MongoURL       string
	Port           string
	Env            string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	MigrationsDir  string
}

// ResolvePath picks the config file path: explicit flag, then CTWEB_CONFIG,
// then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the INI file at path. Keys are read from its [DEFAULT] section
// and may be overridden by CTWEB_<KEY> environment variables. The file must
// exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("DEFAULT.", ""))
	v.AutomaticEnv()

	v.SetDefault(section+"dbport", 5432)
	v.SetDefault(section+"db_schema", "public")
	v.SetDefault(section+"db_max_conns", 10)
	v.SetDefault(section+"db_min_conns", 2)
	v.SetDefault(section+"api_prefix", "")
	v.SetDefault(section+"port", "8000")
	v.SetDefault(section+"env", "development")
	v.SetDefault(section+"cors_origins", "*")
	v.SetDefault(section+"rate_limit_rps", 50)
	v.SetDefault(section+"rate_limit_burst", 100)
	v.SetDefault(section+"request_timeout", "30s")
	v.SetDefault(section+"migrations_dir", "./migrations")

	// AutomaticEnv only applies to keys viper already knows about.
	for _, k := range []string{"dbname", "dbuser", "dbpass", "dbhost", "mongo_url"} {
		v.SetDefault(section+k, "")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{
		DBName:         v.GetString(section + "dbname"),
		DBUser:         v.GetString(section + "dbuser"),
		DBPass:         v.GetString(section + "dbpass"),
		DBHost:         v.GetString(section + "dbhost"),
		DBPort:         v.GetInt(section + "dbport"),
		DBSchema:       v.GetString(section + "db_schema"),
		DBMaxConns:     v.GetInt32(section + "db_max_conns"),
		DBMinConns:     v.GetInt32(section + "db_min_conns"),
		APIPrefix:      strings.TrimRight(v.GetString(section+"api_prefix"), "/"),
		MongoURL:       v.GetString(section + "mongo_url"),
		Port:           v.GetString(section + "port"),
		Env:            v.GetString(section + "env"),
		RateLimitRPS:   v.GetFloat64(section + "rate_limit_rps"),
		RateLimitBurst: v.GetInt(section + "rate_limit_burst"),
		RequestTimeout: v.GetDuration(section + "request_timeout"),
		MigrationsDir:  v.GetString(section + "migrations_dir"),
	}

	for _, o := range strings.Split(v.GetString(section+"cors_origins"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if cfg.DBName == "" {
		return nil, fmt.Errorf("dbname is required")
	}
	if cfg.DBHost == "" {
		cfg.DBHost = "localhost"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseURL assembles a postgres:// URL from the discrete db settings.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	switch {
	case c.DBUser != "" && c.DBPass != "":
		u.User = url.UserPassword(c.DBUser, c.DBPass)
	case c.DBUser != "":
		u.User = url.User(c.DBUser)
	}
	return u.String()
}

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the settings that would otherwise fail late, at first
// request or pool creation.
func (c *Config) Validate() error {
	if c.DBPort <= 0 || c.DBPort > 65535 {
		return fmt.Errorf("dbport out of range: %d", c.DBPort)
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}
	if !schemaPattern.MatchString(c.DBSchema) {
		return fmt.Errorf("invalid db_schema: %q", c.DBSchema)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("db_max_conns must be positive, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("db_min_conns must be between 0 and db_max_conns, got %d", c.DBMinConns)
	}
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("api_prefix must start with '/': %q", c.APIPrefix)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
