package nutricoach

type BackendConfig struct {
	BaseURL        string `env:"NUTRICOACH_API_URL,default=http://localhost:8080"`
	DigestChannel  string `env:"NUTRICOACH_DIGEST_CHANNEL,default=#nutrition"`
	DigestWebhook  string `env:"NUTRICOACH_DIGEST_WEBHOOK,default="`
	AnalysisLogDir string `env:"NUTRICOACH_ANALYSIS_LOG_DIR,default=./logs"`
}

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default="`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}
