package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"youtube-card/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	YouTube     YouTube     `json:"youtube"`
	Cache       Cache       `json:"cache"`
	RateLimit   RateLimit   `json:"rateLimit"`
	Raster      Raster      `json:"raster"`
	RenderFarm  RenderFarm  `json:"renderFarm"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Events      Events      `json:"events"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port           int      `json:"port"`
	Env            string   `json:"env"`
	PublicURL      string   `json:"publicURL"`
	TLSEnabled     bool     `json:"tlsEnabled"`
	TLSCertFile    string   `json:"tlsCertFile"`
	TLSKeyFile     string   `json:"tlsKeyFile"`
	AllowedOrigins []string `json:"allowedOrigins"`
	TrustedProxies []string `json:"trustedProxies"`
	AdminToken     string   `json:"adminToken"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	URL          string `json:"url"`
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName int    `json:"databaseName"`
	Username     string `json:"username"`
}

type YouTube struct {
	APIKey       string   `json:"apiKey"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

// Cache selects the metadata cache backend ("redis", "postgres" or "mssql") and per-kind TTLs.
type Cache struct {
	Backend           string `json:"backend"`
	VideoTTLSeconds   int    `json:"videoTTLSeconds"`
	ChannelTTLSeconds int    `json:"channelTTLSeconds"`
	ImageTTLSeconds   int    `json:"imageTTLSeconds"`
}

type Quota struct {
	Limit         int `json:"limit"`
	WindowSeconds int `json:"windowSeconds"`
}

type RateLimit struct {
	Disabled     bool   `json:"disabled"`
	Abuse        Quota  `json:"abuse"`
	Free         Quota  `json:"free"`
	SupportEmail string `json:"supportEmail"`
}

type Raster struct {
	Workers        int `json:"workers"`
	QueueDepth     int `json:"queueDepth"`
	TimeoutSeconds int `json:"timeoutSeconds"`
}

type RenderFarm struct {
	BaseURL            string `json:"baseURL"`
	APIKey             string `json:"apiKey"`
	PollIntervalMillis int    `json:"pollIntervalMillis"`
	PollTimeoutSeconds int    `json:"pollTimeoutSeconds"`
	MaxPollErrors      int    `json:"maxPollErrors"`
	JobTTLSeconds      int    `json:"jobTTLSeconds"`
}

type Pubsub struct {
	ProjectID   string `json:"projectID"`
	RenderTopic string `json:"renderTopic"`
}

type ServiceBus struct {
	Namespace        string `json:"namespace"`
	ConnectionString string `json:"connectionString"`
	RenderQueue      string `json:"renderQueue"`
}

// Events selects where finished renders are announced ("pubsub", "servicebus" or "none").
type Events struct {
	Backend string `json:"backend"`
}

type Logger struct {
	Format string `json:"format"`
}

var C Config

func init() {
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initApp(&C)
	initRedis(&C)
	initDatabase(&C)
	initYouTube(&C)
	initCache(&C)
	initRateLimit(&C)
	initRaster(&C)
	initRenderFarm(&C)
	initPubsub(&C)
	initServiceBus(&C)
	initEvents(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	if v := os.Getenv("ENV"); v != "" {
		C.App.Env = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		C.App.TLSEnabled = parseBool(v, C.App.TLSEnabled)
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		C.App.PublicURL = v
	}
	if C.App.PublicURL == "" {
		scheme := "http"
		if C.App.TLSEnabled {
			scheme = "https"
		}
		C.App.PublicURL = fmt.Sprintf("%s://localhost:%d", scheme, C.App.Port)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		C.App.AllowedOrigins = splitList(v)
	}
	if len(C.App.AllowedOrigins) == 0 {
		C.App.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		C.App.TrustedProxies = splitList(v)
	}
	C.App.AdminToken = getConfigValue(C.App.AdminToken, "ADMIN_TOKEN", "")
}

func initRedis(C *Config) {
	if v := os.Getenv("REDIS_URL"); v != "" {
		C.RedisClient.URL = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		C.RedisClient.Host = v
	}
	if v := os.Getenv("REDIS_PORT_NUMBER"); v != "" {
		C.RedisClient.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		C.RedisClient.Password = v
	}
	if C.RedisClient.Host == "" {
		C.RedisClient.Host = "localhost"
	}
	if C.RedisClient.Port == "" {
		C.RedisClient.Port = "6379"
	}
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = getEnv("DB_PORT", "5432")
	}
	if C.Database.Psql.SSLMode == "" {
		C.Database.Psql.SSLMode = getEnv("DB_SSLMODE", "disable")
	}

	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_DB_NAME")
	}
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = getEnv("MSSQL_HOST", "localhost")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = getEnv("MSSQL_PORT", "1433")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}
}

func initYouTube(C *Config) {
	C.YouTube.APIKey = getConfigValue(C.YouTube.APIKey, "YOUTUBE_API_KEY", "")
	C.YouTube.ClientID = getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", "")
	C.YouTube.ClientSecret = getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", "")
	C.YouTube.RedirectURI = getConfigValue(C.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", C.App.PublicURL+"/auth/youtube/callback")
}

func initCache(C *Config) {
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		C.Cache.Backend = v
	}
	C.Cache.Backend = strings.ToLower(strings.TrimSpace(C.Cache.Backend))
	if C.Cache.Backend == "" {
		C.Cache.Backend = "redis"
	}
	const week = 7 * 24 * 60 * 60
	C.Cache.VideoTTLSeconds = getEnvInt("CACHE_VIDEO_TTL_SECONDS", orDefault(C.Cache.VideoTTLSeconds, week))
	C.Cache.ChannelTTLSeconds = getEnvInt("CACHE_CHANNEL_TTL_SECONDS", orDefault(C.Cache.ChannelTTLSeconds, week))
	C.Cache.ImageTTLSeconds = getEnvInt("CACHE_IMAGE_TTL_SECONDS", orDefault(C.Cache.ImageTTLSeconds, 24*60*60))
}

func initRateLimit(C *Config) {
	if v := os.Getenv("RATE_LIMIT_DISABLED"); v != "" {
		C.RateLimit.Disabled = parseBool(v, C.RateLimit.Disabled)
	}
	C.RateLimit.Abuse.Limit = getEnvInt("RATE_LIMIT_ABUSE_LIMIT", orDefault(C.RateLimit.Abuse.Limit, 5))
	C.RateLimit.Abuse.WindowSeconds = getEnvInt("RATE_LIMIT_ABUSE_WINDOW_SECONDS", orDefault(C.RateLimit.Abuse.WindowSeconds, 10))
	C.RateLimit.Free.Limit = getEnvInt("RATE_LIMIT_FREE_LIMIT", orDefault(C.RateLimit.Free.Limit, 100))
	C.RateLimit.Free.WindowSeconds = getEnvInt("RATE_LIMIT_FREE_WINDOW_SECONDS", orDefault(C.RateLimit.Free.WindowSeconds, 24*60*60))
	C.RateLimit.SupportEmail = getConfigValue(C.RateLimit.SupportEmail, "SUPPORT_EMAIL", "gabin.aureche@gmail.com")
}

func initRaster(C *Config) {
	C.Raster.Workers = getEnvInt("RASTER_WORKERS", orDefault(C.Raster.Workers, 4))
	C.Raster.QueueDepth = getEnvInt("RASTER_QUEUE", orDefault(C.Raster.QueueDepth, 32))
	C.Raster.TimeoutSeconds = getEnvInt("RASTER_TIMEOUT_SECONDS", orDefault(C.Raster.TimeoutSeconds, 30))
}

func initRenderFarm(C *Config) {
	C.RenderFarm.BaseURL = getConfigValue(C.RenderFarm.BaseURL, "RENDER_FARM_URL", "")
	C.RenderFarm.APIKey = getConfigValue(C.RenderFarm.APIKey, "RENDER_FARM_API_KEY", "")
	C.RenderFarm.PollIntervalMillis = getEnvInt("RENDER_POLL_INTERVAL_MS", orDefault(C.RenderFarm.PollIntervalMillis, 1000))
	C.RenderFarm.PollTimeoutSeconds = getEnvInt("RENDER_POLL_TIMEOUT_SECONDS", orDefault(C.RenderFarm.PollTimeoutSeconds, 600))
	C.RenderFarm.MaxPollErrors = getEnvInt("RENDER_MAX_POLL_ERRORS", orDefault(C.RenderFarm.MaxPollErrors, 5))
	C.RenderFarm.JobTTLSeconds = getEnvInt("RENDER_JOB_TTL_SECONDS", orDefault(C.RenderFarm.JobTTLSeconds, 24*60*60))
}

func initPubsub(C *Config) {
	C.Pubsub.ProjectID = getConfigValue(C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	C.Pubsub.RenderTopic = getConfigValue(C.Pubsub.RenderTopic, "PUBSUB_RENDER_TOPIC", "render-events")
}

func initServiceBus(C *Config) {
	C.ServiceBus.Namespace = getConfigValue(C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	C.ServiceBus.ConnectionString = getConfigValue(C.ServiceBus.ConnectionString, "SERVICEBUS_CONNECTION_STRING", "")
	C.ServiceBus.RenderQueue = getConfigValue(C.ServiceBus.RenderQueue, "SERVICEBUS_RENDER_QUEUE", "render-events")
}

func initEvents(C *Config) {
	backend := strings.ToLower(getConfigValue(C.Events.Backend, "RENDER_EVENTS_BACKEND", ""))
	if backend == "" {
		switch {
		case C.Pubsub.ProjectID != "":
			backend = "pubsub"
		case C.ServiceBus.Namespace != "" || C.ServiceBus.ConnectionString != "":
			backend = "servicebus"
		default:
			backend = "none"
		}
	}
	C.Events.Backend = backend
}

// IsDevelopment reports whether the process runs with ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "dev"
}

func (q Quota) Window() time.Duration {
	return time.Duration(q.WindowSeconds) * time.Second
}

func (c Cache) VideoTTL() time.Duration   { return time.Duration(c.VideoTTLSeconds) * time.Second }
func (c Cache) ChannelTTL() time.Duration { return time.Duration(c.ChannelTTLSeconds) * time.Second }
func (c Cache) ImageTTL() time.Duration   { return time.Duration(c.ImageTTLSeconds) * time.Second }

func (r Raster) Timeout() time.Duration { return time.Duration(r.TimeoutSeconds) * time.Second }

func (r RenderFarm) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMillis) * time.Millisecond
}

func (r RenderFarm) PollTimeout() time.Duration {
	return time.Duration(r.PollTimeoutSeconds) * time.Second
}

func (r RenderFarm) JobTTL() time.Duration {
	return time.Duration(r.JobTTLSeconds) * time.Second
}

// getConfigValue gets value from the environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// placeholders such as YOUR_API_KEY count as unset
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"key": key, "value": v}).Warn("Ignoring non-numeric environment value")
		return defaultValue
	}
	return n
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
