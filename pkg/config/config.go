package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogConfig          string // path to log config file
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry ("stdout" for local debugging)
	ProfilingPort      int    // port for profiling
	OpenF1URL          string // base url of the OpenF1 api
	HTTPTimeout        string // timeout for requests to the OpenF1 api
	CacheType          string // file, memory or nats
	CacheDir           string // storage directory for the file cache
	CacheTTL           string // age after which cached responses are refetched (0: never)
	NatsURL            string // url of the NATS server (cache type nats)
	ServerAddr         string // listen addr for the HTTP server
	TLSCertFile        string // path to TLS certificate
	TLSKeyFile         string // path to TLS key
	TLSServerAddr      string // listen addr for the HTTPS server
	TraefikCerts       string // path to traefik acme file
	TraefikCertDomain  string // the domain to lookup within the traefik certs
	RunCacheTTL        string // duration computed runs are kept by the HTTP server
)

// Config holds the configuration values which are used by a single dominance run
type Config struct {
	BinWidth          float64 // bin width in meters
	QuickLapThreshold float64 // factor applied to the session's fastest lap
	OutputDir         string  // directory for generated files
	PNG               bool    // also render a PNG map
	Store             bool    // persist the run in the database
}
