// =============================================================================
// 📦 FlowCanvas 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Engine:    DefaultEngineConfig(),
		LLM:       DefaultLLMConfig(),
		Cache:     DefaultCacheConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Store:     DefaultStoreConfig(),
		Content:   DefaultContentConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    10 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		HistorySize:     100,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultEngineConfig 返回默认引擎配置：严格顺序执行
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxConcurrency:    1,
		NodeTimeout:       0,
		MaxParallelModels: 4,
	}
}

// DefaultLLMConfig 返回默认模型配置；echo 不需要任何凭据
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:         "echo",
		Timeout:          2 * time.Minute,
		RateLimitRPS:     0,
		RateLimitBurst:   1,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:   false,
		Addr:      "localhost:6379",
		DB:        0,
		TTL:       time.Hour,
		KeyPrefix: "flowcanvas:llm:",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "flowcanvas",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "flowcanvas",
		SampleRate:   0.1,
	}
}

// DefaultStoreConfig 返回默认存储配置：仅保存在内存中
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:          "memory",
		MaxIdleConns:    5,
		MaxOpenConns:    20,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultContentConfig 返回默认内容加载配置
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		AllowURL:     true,
		MaxBytes:     1 << 20,
		FetchTimeout: 30 * time.Second,
	}
}
