package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/watchwish/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB 只生成 SQL，不连接数据库（Create 默认事务会真正开连接，必须跳过）
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=watchwish dbname=watchwish sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db
}

func TestApplyFilter(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var movies []model.Movie
		return applyFilter(tx.Model(&model.Movie{}), model.MovieFilter{
			Genre:          "  Sci-Fi ",
			MinVoteAverage: 7.5,
			ExcludeIDs:     []int{3, 5},
		}).Find(&movies)
	})

	assert.Contains(t, sql, "'sci-fi' = ANY(regexp_split_to_array(lower(genres)")
	assert.Contains(t, sql, "vote_average >= 7.5")
	assert.Contains(t, sql, "NOT (movie_id = ANY('{3,5}'))")
}

func TestApplyFilter_Empty(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var movies []model.Movie
		return applyFilter(tx.Model(&model.Movie{}), model.MovieFilter{}).Find(&movies)
	})

	assert.NotContains(t, sql, "WHERE")
}

func TestEntriesCodec(t *testing.T) {
	raw, err := EncodeEntries([]model.RecEntry{{NaturalID: 42, Score: 3.5}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"movie_id":42,"score":3.5}]`, string(raw))

	entries, err := DecodeEntries([]byte(`[{"movie_id":7,"score":1.25},{"movie_id":9,"score":0.5}]`))
	require.NoError(t, err)
	assert.Equal(t, []model.RecEntry{{NaturalID: 7, Score: 1.25}, {NaturalID: 9, Score: 0.5}}, entries)

	empty, err := EncodeEntries(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	for _, blank := range [][]byte{nil, []byte("null")} {
		entries, err := DecodeEntries(blank)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}

	_, err = DecodeEntries([]byte(`{"movie_id":`))
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% pure\_fun`, escapeLike("100% pure_fun"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}

// captureCreateSQL 记录 DryRun 模式下 Create 生成的 SQL
func captureCreateSQL(t *testing.T, db *gorm.DB) *string {
	t.Helper()
	var captured string
	err := db.Callback().Create().After("gorm:create").Register("test:capture", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	})
	require.NoError(t, err)
	return &captured
}

func TestMovieUpsert(t *testing.T) {
	db := dryRunDB(t)
	sql := captureCreateSQL(t, db)

	movie := &model.Movie{NaturalID: 42, Title: "Answer", Genres: "Drama"}
	require.NoError(t, NewMovieRepository(db).Upsert(context.Background(), movie))

	assert.False(t, movie.UpdatedAt.IsZero())
	assert.Contains(t, *sql, `ON CONFLICT ("movie_id") DO UPDATE SET`)
	assert.Contains(t, *sql, `"title"="excluded"."title"`)
	assert.Contains(t, *sql, `"updated_at"="excluded"."updated_at"`)
}

func TestRatingUpsert(t *testing.T) {
	db := dryRunDB(t)
	sql := captureCreateSQL(t, db)

	require.NoError(t, NewRatingRepository(db).Upsert(context.Background(), 7, 42, 4.5))

	assert.Contains(t, *sql, `ON CONFLICT ("user_id","movie_id") DO UPDATE SET`)
	assert.Contains(t, *sql, `"score"="excluded"."score"`)
	assert.NotContains(t, *sql, `"created_at"="excluded"."created_at"`)
}

func TestRecommendationSave(t *testing.T) {
	db := dryRunDB(t)
	sql := captureCreateSQL(t, db)

	batch := &model.RecommendationBatch{UserID: 7, SourceModel: "model1"}
	require.NoError(t, NewRecommendationRepository(db).Save(context.Background(), batch))

	assert.Equal(t, "[]", string(batch.EntriesJSON))
	assert.False(t, batch.CreatedAt.IsZero())
	assert.Contains(t, *sql, `ON CONFLICT ("user_id","source_model") DO UPDATE SET`)
	assert.Contains(t, *sql, `"entries"="excluded"."entries"`)
}
