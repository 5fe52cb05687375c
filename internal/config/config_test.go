package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"JWT_SECRET", "JWT_ISSUER",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"EVENTS_SUBSCRIBER_BUFFER", "EVENTS_REDIS_CHANNEL", "EVENTS_HEARTBEAT_INTERVAL", "EVENTS_PUBLISH_TIMEOUT",
	"CACHE_ENABLED", "CACHE_TASK_TTL", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func withEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(allEnvVars)
	setEnvVars(vars)
	t.Cleanup(func() { clearEnvVars(allEnvVars) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withEnv(t, nil)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected default DB driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.Name != "task_tracker" {
		t.Errorf("Expected default DB name 'task_tracker', got %s", config.Database.Name)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if config.Redis.Enabled {
		t.Error("Expected redis to be disabled by default")
	}

	if config.Redis.PoolSize != 10 {
		t.Errorf("Expected default Redis pool size 10, got %d", config.Redis.PoolSize)
	}

	if config.Events.SubscriberBuffer != 64 {
		t.Errorf("Expected default subscriber buffer 64, got %d", config.Events.SubscriberBuffer)
	}

	if config.Events.RedisChannel != "task-tracker:events" {
		t.Errorf("Expected default redis channel, got %s", config.Events.RedisChannel)
	}

	if !config.Cache.Enabled || config.Cache.TaskTTL != 5*time.Minute {
		t.Errorf("Expected task cache enabled with 5m TTL, got %+v", config.Cache)
	}

	if len(config.CORS.AllowedOrigins) != 1 || config.CORS.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Unexpected default CORS origins %v", config.CORS.AllowedOrigins)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}

	if config.Log.Level != "info" || config.Log.Format != "json" {
		t.Errorf("Unexpected log defaults %+v", config.Log)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	withEnv(t, map[string]string{
		"HOST":                      "0.0.0.0",
		"PORT":                      "9000",
		"ENVIRONMENT":               "production",
		"DB_HOST":                   "db.example.com",
		"DB_PASSWORD":               "secure_password",
		"DB_MAX_OPEN_CONNS":         "50",
		"REDIS_ENABLED":             "true",
		"REDIS_HOST":                "redis.example.com",
		"REDIS_DB":                  "1",
		"JWT_SECRET":                "super-secret-key",
		"RATE_LIMIT_ENABLED":        "false",
		"READ_TIMEOUT":              "45s",
		"EVENTS_SUBSCRIBER_BUFFER":  "16",
		"EVENTS_HEARTBEAT_INTERVAL": "10s",
		"CORS_ALLOWED_ORIGINS":      "https://app.example.com, https://admin.example.com,",
		"LOG_LEVEL":                 "debug",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.GetServerAddr() != "0.0.0.0:9000" {
		t.Errorf("Expected server addr '0.0.0.0:9000', got %s", config.GetServerAddr())
	}

	if !config.IsProduction() {
		t.Error("Expected production environment")
	}

	if config.Database.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", config.Database.MaxOpenConns)
	}

	if !config.Redis.Enabled || config.Redis.DB != 1 {
		t.Errorf("Unexpected redis config %+v", config.Redis)
	}

	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	if config.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Expected read timeout 45s, got %v", config.Server.ReadTimeout)
	}

	if config.Events.SubscriberBuffer != 16 || config.Events.HeartbeatInterval != 10*time.Second {
		t.Errorf("Unexpected events config %+v", config.Events)
	}

	if len(config.CORS.AllowedOrigins) != 2 || config.CORS.AllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("Unexpected CORS origins %v", config.CORS.AllowedOrigins)
	}

	if config.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Log.Level)
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "secure-jwt-secret",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for missing database password in production")
	}

	if err.Error() != "database password is required in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_ProductionSQLiteNeedsNoPassword(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_DRIVER":   "sqlite",
		"JWT_SECRET":  "secure-jwt-secret",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.GetDatabaseDSN() != "task_tracker.db" {
		t.Errorf("Expected sqlite path as DSN, got %s", config.GetDatabaseDSN())
	}
}

func TestLoadConfig_ProductionJWTValidation(t *testing.T) {
	withEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "secure-db-password",
	})

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for default JWT secret in production")
	}

	if err.Error() != "JWT secret must be set in production" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"zero subscriber buffer", map[string]string{"EVENTS_SUBSCRIBER_BUFFER": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.envVars)

			if _, err := LoadConfig(); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require"
	actual := config.GetDatabaseDSN()

	if actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}
}

func TestConfig_GetRedisAddr(t *testing.T) {
	config := &Config{
		Redis: RedisConfig{
			Host: "redis.example.com",
			Port: "6380",
		},
	}

	if actual := config.GetRedisAddr(); actual != "redis.example.com:6380" {
		t.Errorf("Expected Redis addr 'redis.example.com:6380', got '%s'", actual)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"
	defaultValue := true

	os.Unsetenv(key)
	if result := getEnvAsBool(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %v, got %v", defaultValue, result)
	}

	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
		{"invalid", defaultValue},
	}

	for _, tc := range testCases {
		os.Setenv(key, tc.value)
		if result := getEnvAsBool(key, defaultValue); result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}

	os.Unsetenv(key)
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defaultValue := 30 * time.Second

	os.Setenv(key, "5m")
	defer os.Unsetenv(key)

	if result := getEnvAsDuration(key, defaultValue); result != 5*time.Minute {
		t.Errorf("Expected env value 5m, got %v", result)
	}

	os.Setenv(key, "not-a-duration")
	if result := getEnvAsDuration(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %v for invalid duration, got %v", defaultValue, result)
	}
}

func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"
	defer os.Unsetenv(key)

	os.Setenv(key, " , ,")
	if result := getEnvAsList(key, []string{"fallback"}); len(result) != 1 || result[0] != "fallback" {
		t.Errorf("Expected fallback for blank list, got %v", result)
	}

	os.Setenv(key, "a,b , c")
	result := getEnvAsList(key, nil)
	if len(result) != 3 || result[1] != "b" || result[2] != "c" {
		t.Errorf("Expected trimmed items, got %v", result)
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	setEnvVars(map[string]string{"ENVIRONMENT": "development"})
	defer clearEnvVars([]string{"ENVIRONMENT"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(); err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
