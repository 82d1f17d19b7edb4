package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	AI         AIConfig
	FileUpload FileUploadConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// StoreConfig 策略库存储配置
type StoreConfig struct {
	// Path 是sqlite存储文件路径，标量表和向量索引在同一个文件中
	Path string
	// Dimension 是向量索引的固定维度，必须与嵌入模型输出一致
	Dimension int
	// DefaultK 是交互检索路径的近邻数量
	DefaultK int
}

type AIConfig struct {
	OpenAIAPIKey   string
	EmbeddingModel string
	AgentModel     string
	GeneratorModel string
	MaxToolRounds  int
	TimeoutSecs    int
	MaxRetries     int
}

type FileUploadConfig struct {
	MaxSize      int64
	AllowedTypes []string
}

// AppConfig 全局配置实例
var AppConfig *Config

// LoadConfig 加载配置，优先级：环境变量 > 默认值
func LoadConfig() error {
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")

	viper.SetDefault("store.path", "./db/incidents.sqlite")
	viper.SetDefault("store.dimension", 1536)
	viper.SetDefault("store.default_k", 10)

	viper.SetDefault("ai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("ai.agent_model", "gpt-4o")
	viper.SetDefault("ai.generator_model", "gpt-4o-mini")
	viper.SetDefault("ai.max_tool_rounds", 8)
	viper.SetDefault("ai.timeout_secs", 60)
	viper.SetDefault("ai.max_retries", 3)

	viper.SetDefault("file_upload.max_size", 1048576) // 1MB
	viper.SetDefault("file_upload.allowed_types", []string{".txt", ".md"})

	// 读取环境变量
	viper.SetEnvPrefix("INCIDENT")
	viper.AutomaticEnv()

	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if env := os.Getenv("ENV"); env != "" {
		viper.Set("server.env", env)
	}
	if storePath := os.Getenv("STORE_PATH"); storePath != "" {
		viper.Set("store.path", storePath)
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("ai.openai_api_key", apiKey)
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Store: StoreConfig{
			Path:      viper.GetString("store.path"),
			Dimension: viper.GetInt("store.dimension"),
			DefaultK:  viper.GetInt("store.default_k"),
		},
		AI: AIConfig{
			OpenAIAPIKey:   viper.GetString("ai.openai_api_key"),
			EmbeddingModel: viper.GetString("ai.embedding_model"),
			AgentModel:     viper.GetString("ai.agent_model"),
			GeneratorModel: viper.GetString("ai.generator_model"),
			MaxToolRounds:  viper.GetInt("ai.max_tool_rounds"),
			TimeoutSecs:    viper.GetInt("ai.timeout_secs"),
			MaxRetries:     viper.GetInt("ai.max_retries"),
		},
		FileUpload: FileUploadConfig{
			MaxSize:      viper.GetInt64("file_upload.max_size"),
			AllowedTypes: viper.GetStringSlice("file_upload.allowed_types"),
		},
	}

	return nil
}
