package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/user/watchwish/internal/config"
	"github.com/user/watchwish/internal/model"
	"github.com/user/watchwish/internal/repository"
	"github.com/user/watchwish/internal/utils"
)

// seed 把离线产出的电影目录和推荐批次导入数据库
//
//	go run ./cmd/seed -movies movies.json -recommendations recs.json
func main() {
	moviesPath := flag.String("movies", "", "电影目录 JSON 文件")
	batchesPath := flag.String("recommendations", "", "预计算推荐 JSON 文件")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", "console")
		log.Fatal().Err(err).Msg("配置加载失败")
	}
	utils.InitLogger(cfg.LogLevel, "console")

	if *moviesPath == "" && *batchesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var movies []model.Movie
	if *moviesPath != "" {
		if movies, err = repository.ReadMovies(*moviesPath); err != nil {
			log.Fatal().Err(err).Msg("读取电影目录失败")
		}
	}
	var batches []model.RecommendationBatch
	if *batchesPath != "" {
		if batches, err = repository.ReadBatches(*batchesPath); err != nil {
			log.Fatal().Err(err).Msg("读取推荐批次失败")
		}
	}

	db, err := repository.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("数据库连接失败")
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("数据库迁移失败")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	stats, err := repository.NewRepositories(db).Seed(ctx, movies, batches)
	stop()
	if closeErr := repository.Close(db); closeErr != nil {
		log.Warn().Err(closeErr).Msg("关闭数据库失败")
	}
	if err != nil {
		log.Fatal().Err(err).Int("movies", stats.Movies).Int("batches", stats.Batches).Msg("导入中断")
	}
	log.Info().Int("movies", stats.Movies).Int("batches", stats.Batches).Msg("导入完成")
}
