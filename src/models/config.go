package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	GrpcHost  string           `yaml:"grpc_host"`
	GrpcPort  int              `yaml:"grpc_port"`
	Backend   MBackendConfig   `yaml:"backend"`
	Cache     MCacheConfig     `yaml:"cache"`
	Refresh   MRefreshConfig   `yaml:"refresh"`
	Fibonacci MFibonacciConfig `yaml:"fibonacci"`
	Calendar  MCalendarConfig  `yaml:"calendar"`
}

type MBackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

type MCacheConfig struct {
	Type          string `yaml:"type"` // "memory" or "redis"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

type MRefreshConfig struct {
	GroupsCron string `yaml:"groups_cron"` // empty disables scheduled refresh
}

type MFibonacciConfig struct {
	Seed   int64                   `yaml:"seed"` // 0 uses the clock identity
	Levels []MFibonacciLevelConfig `yaml:"levels"`
}

type MCalendarConfig struct {
	DefaultMIC string `yaml:"default_mic"`
}
