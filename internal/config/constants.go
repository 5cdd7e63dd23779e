package config

import "time"

// Application identity.
const (
	AppName = "Survey Prep"

	// EnvPrefix is the environment variable prefix for all settings.
	EnvPrefix = "SURVEY"
)

// Rate limiting defaults.
const (
	DefaultRateLimitRPS   = 100.0
	DefaultRateLimitBurst = 50
)

// WebSocket defaults.
const (
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
)

// Logging defaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogFilePath = "logs/app.log"
)

// Pipeline and dataset handling defaults.
const (
	DefaultRunRetention    = 24 * time.Hour
	DefaultCleanupInterval = time.Hour
	DefaultPreviewRows     = 50
	DefaultMaxUploadBytes  = 50 * 1024 * 1024 // 50MB
)

// Well-known directory names relative to the base directory.
const (
	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultChartsDir  = "data/charts"
	DefaultLogsDir    = "logs"
)

// API endpoints.
const (
	APIBasePath       = "/api"
	DatasetsEndpoint  = "/api/datasets"
	PipelineEndpoint  = "/api/pipeline"
	EstimatesEndpoint = "/api/estimates"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
