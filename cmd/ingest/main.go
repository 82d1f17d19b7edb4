// 一次性批量入库工具：读取目录下的纯文本策略文档，为每份文档生成示例情景、
// 批量嵌入并原子写入策略库。已入库的文档重跑时跳过。
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aihub/incident-backend-go/internal/config"
	"github.com/aihub/incident-backend-go/internal/logger"
	"github.com/aihub/incident-backend-go/internal/policy"
)

func main() {
	dir := flag.String("dir", "./policies", "directory of plain-text policy documents, one file per policy")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	if err := logger.InitLogger(); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	if err := config.LoadConfig(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg := config.AppConfig

	store := policy.NewStore(cfg.Store)

	embedder, err := policy.NewOpenAIEmbedder(
		cfg.AI.OpenAIAPIKey, cfg.AI.EmbeddingModel, cfg.AI.MaxRetries, cfg.AI.TimeoutSecs)
	if err != nil {
		logger.Fatal("failed to create embedder", zap.Error(err))
	}

	generator, err := policy.NewOpenAIExampleGenerator(cfg.AI.OpenAIAPIKey, cfg.AI.GeneratorModel)
	if err != nil {
		logger.Fatal("failed to create example generator", zap.Error(err))
	}

	ingestor := policy.NewIngestor(store, embedder, generator)
	summary, err := ingestor.Run(context.Background(), *dir)
	if err != nil {
		logger.Fatal("ingestion aborted", zap.Error(err))
	}

	logger.Info("ingestion finished",
		zap.String("dir", *dir),
		zap.Int("ingested", summary.Ingested),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	logger.Sync()
}
