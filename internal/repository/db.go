package repository

import (
	"fmt"
	"time"

	"github.com/user/watchwish/internal/config"
	"github.com/user/watchwish/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取连接池失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate 建表与索引
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Movie{}, &model.Rating{}, &model.RecommendationBatch{})
}

// Repositories 仓库集合
type Repositories struct {
	DB             *gorm.DB
	Movie          *MovieRepository
	Rating         *RatingRepository
	Recommendation *RecommendationRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:             db,
		Movie:          NewMovieRepository(db),
		Rating:         NewRatingRepository(db),
		Recommendation: NewRecommendationRepository(db),
	}
}
