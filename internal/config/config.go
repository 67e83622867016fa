package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

const DefaultAdviceBaseURL = "http://127.0.0.1:8000"

type Config struct {
	AdviceBaseURL      string
	AdviceRefetchSecs  int
	AdviceStaleSecs    int
	AdviceTimeoutSecs  int
	MarketChangeSource string
	CatalogPath        string
	RedisURL           string
	HTTPPort           int

	TelegramBotToken string

	OpenAIAPIKey      string
	OpenAIModel       string
	AdvisorMaxHistory int

	SSHBind        string
	SSHPort        int
	SSHHostKeyPath string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	WhaleAnomalyThreshold float64
	WhaleIForestTrees     int
	WhaleIForestSample    int

	OTLPEndpoint string
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		CatalogPath:      strings.TrimSpace(os.Getenv("CATALOG_PATH")),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		OTLPEndpoint:     strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.AdviceBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("ADVICE_API_BASE_URL")), "/")
	if cfg.AdviceBaseURL == "" {
		cfg.AdviceBaseURL = DefaultAdviceBaseURL
	} else if u, err := url.Parse(cfg.AdviceBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		log.Warn("invalid ADVICE_API_BASE_URL, using default", "value", cfg.AdviceBaseURL, "default", DefaultAdviceBaseURL)
		cfg.AdviceBaseURL = DefaultAdviceBaseURL
	}

	cfg.AdviceRefetchSecs = positiveInt("ADVICE_REFETCH_SECS", 30)
	cfg.AdviceStaleSecs = positiveInt("ADVICE_STALE_SECS", 10)
	cfg.AdviceTimeoutSecs = positiveInt("ADVICE_HTTP_TIMEOUT_SECS", 10)
	if cfg.AdviceStaleSecs > cfg.AdviceRefetchSecs {
		log.Warn("ADVICE_STALE_SECS exceeds ADVICE_REFETCH_SECS, clamping", "stale", cfg.AdviceStaleSecs, "refetch", cfg.AdviceRefetchSecs)
		cfg.AdviceStaleSecs = cfg.AdviceRefetchSecs
	}

	cfg.MarketChangeSource = strings.ToLower(strings.TrimSpace(os.Getenv("MARKET_CHANGE_SOURCE")))
	if cfg.MarketChangeSource == "" {
		cfg.MarketChangeSource = "random"
	}
	if cfg.MarketChangeSource != "random" && cfg.MarketChangeSource != "yahoo" {
		log.Warnf("unsupported MARKET_CHANGE_SOURCE=%q, defaulting to random", cfg.MarketChangeSource)
		cfg.MarketChangeSource = "random"
	}

	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, advice snapshots stay in process")
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)

	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set")
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY not set, advisor will be disabled")
	}
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	cfg.AdvisorMaxHistory = positiveInt("ADVISOR_MAX_HISTORY", 20)

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}
	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/signal_deck_ed25519"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warnf("unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")
	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 5)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	cfg.WhaleAnomalyThreshold = 0.62
	if v := strings.TrimSpace(os.Getenv("WHALE_ANOMALY_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.WhaleAnomalyThreshold = n
		} else {
			log.Warn("invalid WHALE_ANOMALY_THRESHOLD, using default", "value", v)
		}
	}
	cfg.WhaleIForestTrees = positiveInt("WHALE_IFOREST_TREES", 100)
	cfg.WhaleIForestSample = positiveInt("WHALE_IFOREST_SAMPLE_SIZE", 16)

	return cfg
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn("invalid integer setting, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
