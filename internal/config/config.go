package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	NATS     NATSConfig     `json:"nats"`
	Provider ProviderConfig `json:"provider"`
	DNS      DNSConfig      `json:"dns"`
	Brand    BrandConfig    `json:"brand"`
	Limits   LimitsConfig   `json:"limits"`
	Workers  WorkersConfig  `json:"workers"`
}

type ServerConfig struct {
	Port string `json:"port"`
	Host string `json:"host"`
	Mode string `json:"mode"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       string `json:"db"`
	URL      string `json:"url"`
}

type NATSConfig struct {
	URL string `json:"url"`
}

// ProviderConfig holds credentials for the external hosting provider.
// When Token or SiteID is missing the service runs without the provider:
// DNS requirements use the fixed fallback targets and SSL activation is
// simulated.
type ProviderConfig struct {
	Token            string `json:"token"`
	SiteID           string `json:"site_id"`
	BaseURL          string `json:"base_url"`
	FallbackSiteHost string `json:"fallback_site_host"`
	LoadBalancerIP   string `json:"load_balancer_ip"`
}

// Configured reports whether real provider API calls can be made.
func (p *ProviderConfig) Configured() bool {
	return p.Token != "" && p.SiteID != ""
}

type DNSConfig struct {
	ResolverEndpoint   string `json:"resolver_endpoint"`   // DNS-over-HTTPS JSON endpoint
	VerificationPrefix string `json:"verification_prefix"` // label prepended for ownership TXT lookups
	PlatformDomain     string `json:"platform_domain"`     // Base domain for brand subdomains (e.g., brandhost.app)
}

type BrandConfig struct {
	ServiceURL string `json:"service_url"`
}

type LimitsConfig struct {
	MaxDomainsPerBrand int `json:"max_domains_per_brand"`
}

type WorkersConfig struct {
	VerificationInterval time.Duration `json:"verification_interval"`
	SSLInterval          time.Duration `json:"ssl_interval"`
	CleanupInterval      time.Duration `json:"cleanup_interval"`
	EventRetention       time.Duration `json:"event_retention"`
}

func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8094"),
			Host: getEnv("HOST", "0.0.0.0"),
			Mode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "brand_domains_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: buildRedisConfig(),
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Provider: ProviderConfig{
			Token:            getEnv("PROVIDER_API_TOKEN", ""),
			SiteID:           getEnv("PROVIDER_SITE_ID", ""),
			BaseURL:          getEnv("PROVIDER_BASE_URL", "https://api.netlify.com/api/v1"),
			FallbackSiteHost: getEnv("PROVIDER_FALLBACK_SITE_HOST", "sites.brandhost.app"),
			LoadBalancerIP:   getEnv("PROVIDER_LOAD_BALANCER_IP", "75.2.60.5"),
		},
		DNS: DNSConfig{
			ResolverEndpoint:   getEnv("DNS_RESOLVER_ENDPOINT", "https://dns.google/resolve"),
			VerificationPrefix: getEnv("DNS_VERIFICATION_PREFIX", "_verify"),
			PlatformDomain:     getEnv("DNS_PLATFORM_DOMAIN", "brandhost.app"),
		},
		Brand: BrandConfig{
			ServiceURL: getEnv("BRAND_SERVICE_URL", ""),
		},
		Limits: LimitsConfig{
			MaxDomainsPerBrand: getIntEnv("MAX_DOMAINS_PER_BRAND", 5),
		},
		Workers: WorkersConfig{
			VerificationInterval: getDurationEnv("VERIFICATION_INTERVAL", 5*time.Minute),
			SSLInterval:          getDurationEnv("SSL_POLL_INTERVAL", 2*time.Minute),
			CleanupInterval:      getDurationEnv("CLEANUP_INTERVAL", 24*time.Hour),
			EventRetention:       getDurationEnv("EVENT_RETENTION", 90*24*time.Hour),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

func buildRedisConfig() RedisConfig {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return RedisConfig{URL: url}
	}

	host := getEnv("REDIS_HOST", "localhost")
	port := getEnv("REDIS_PORT", "6379")
	password := os.Getenv("REDIS_PASSWORD")
	db := getEnv("REDIS_DB", "0")

	var url string
	if password != "" {
		url = "redis://:" + password + "@" + host + ":" + port + "/" + db
	} else {
		url = "redis://" + host + ":" + port + "/" + db
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: password,
		DB:       db,
		URL:      url,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
