package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/user/watchwish/internal/config"
	"github.com/user/watchwish/internal/handler"
	"github.com/user/watchwish/internal/metrics"
	"github.com/user/watchwish/internal/middleware"
	"github.com/user/watchwish/internal/repository"
	"github.com/user/watchwish/internal/router"
	"github.com/user/watchwish/internal/service"
	"github.com/user/watchwish/internal/textsim"
	"github.com/user/watchwish/internal/utils"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", "console")
		log.Fatal().Err(err).Msg("配置加载失败")
	}

	format := cfg.LogFormat
	if !cfg.IsProduction() && format == "" {
		format = "console"
	}
	utils.InitLogger(cfg.LogLevel, format)
	if envErr != nil {
		log.Info().Msg("未找到 .env 文件，使用系统环境变量")
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("数据库连接失败")
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			log.Warn().Err(err).Msg("关闭数据库失败")
		}
	}()

	if cfg.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("数据库迁移失败")
		}
	}

	// 初始化仓库与服务
	repos := repository.NewRepositories(db)
	m := metrics.New()

	conceptOpts := service.ConceptOptions{
		Vectorizer:    textsim.DefaultConfig(),
		SnapshotLimit: cfg.ConceptSnapshotLimit,
		DefaultTopN:   cfg.ConceptTopN,
		MaxTopN:       cfg.MaxLimit,
		CacheSize:     cfg.ConceptCacheSize,
		CacheTTL:      cfg.ConceptCacheTTL,
	}
	concepts := service.NewConceptEngine(repos.Movie, conceptOpts, m, utils.Component("concept"))

	recs := service.NewRecommendationService(
		repos.Recommendation, repos.Rating, repos.Movie, concepts,
		service.RecommendationOptions{
			DefaultLimit: cfg.DefaultLimit,
			MaxLimit:     cfg.MaxLimit,
			CacheTTL:     cfg.RecCacheTTL,
		},
		m, utils.Component("service"),
	)
	catalog := service.NewCatalogService(repos.Movie, cfg.DefaultLimit, cfg.MaxLimit)

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 中间件
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(utils.Component("http")))
	r.Use(middleware.Metrics(m))

	h := handler.NewHandler(recs, catalog, handler.Options{WebUserOffset: cfg.WebUserOffset})
	router.RegisterRoutes(r, h, m, cfg.AppSecret)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 监听中断信号以优雅地关闭服务器
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 启动时预先拟合概念引擎，失败不影响推荐服务
	if cfg.ConceptWarmup {
		g.Go(func() error {
			if err := concepts.Warmup(gctx); err != nil {
				log.Warn().Err(err).Msg("概念引擎预热失败，概念分析将返回空结果")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("正在关闭服务器...")

		// 5 秒超时上下文用于关闭过程
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("服务器异常退出")
		os.Exit(1)
	}
	log.Info().Msg("服务器已退出")
}
