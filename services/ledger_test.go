package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillpost-api/database/dbtest"
	"quillpost-api/models"
)

func newLedger(t *testing.T) (*CounterLedger, *models.User, *models.Post) {
	t.Helper()

	db := dbtest.New(t)
	ledger := NewCounterLedger(db, NewMetrics(nil))
	ledger.now = fixedClock(testNow)

	author := createUser(t, db, "author")
	post := createPost(t, db, author, published(testNow.Add(-time.Hour)))
	return ledger, author, post
}

func TestToggleLikeRoundTrip(t *testing.T) {
	ledger, _, post := newLedger(t)
	ctx := context.Background()
	reader := createUser(t, ledger.db, "reader")

	res, err := ledger.ToggleLike(ctx, post.ID, reader.ID)
	require.NoError(t, err)
	require.Equal(t, models.LikeResult{Liked: true, LikeCount: 1}, *res)

	liked, err := ledger.HasUserLiked(ctx, post.ID, reader.ID)
	require.NoError(t, err)
	require.True(t, liked)

	res, err = ledger.ToggleLike(ctx, post.ID, reader.ID)
	require.NoError(t, err)
	require.Equal(t, models.LikeResult{Liked: false, LikeCount: 0}, *res)

	liked, err = ledger.HasUserLiked(ctx, post.ID, reader.ID)
	require.NoError(t, err)
	require.False(t, liked)
	require.Zero(t, reloadPost(t, ledger.db, post.ID).LikeCount)
}

func TestToggleLikeOnDraftFails(t *testing.T) {
	ledger, author, _ := newLedger(t)
	draft := createPost(t, ledger.db, author, counters(0, 4))

	_, err := ledger.ToggleLike(context.Background(), draft.ID, author.ID)
	require.ErrorIs(t, err, ErrNotPublished)

	require.EqualValues(t, 4, reloadPost(t, ledger.db, draft.ID).LikeCount)
	require.Zero(t, count(t, ledger.db, &models.Like{}, "post_id = ?", draft.ID))
}

func TestToggleLikeOnMissingPost(t *testing.T) {
	ledger, author, _ := newLedger(t)

	_, err := ledger.ToggleLike(context.Background(), "missing", author.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleLikeClampsAtZero(t *testing.T) {
	ledger, _, post := newLedger(t)
	reader := createUser(t, ledger.db, "reader")
	userID := reader.ID
	require.NoError(t, ledger.db.Create(&models.Like{PostID: post.ID, UserID: &userID, CreatedAt: testNow}).Error)

	res, err := ledger.ToggleLike(context.Background(), post.ID, reader.ID)
	require.NoError(t, err)
	require.False(t, res.Liked)
	require.Zero(t, res.LikeCount)
}

func TestAnonymousLikesAlwaysAdd(t *testing.T) {
	ledger, _, post := newLedger(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := ledger.ToggleLike(ctx, post.ID, "")
		require.NoError(t, err)
		require.True(t, res.Liked)
		require.EqualValues(t, i, res.LikeCount)
	}
	require.EqualValues(t, 3, count(t, ledger.db, &models.Like{}, "post_id = ? AND user_id IS NULL", post.ID))
}

func TestConcurrentTogglesBySameUser(t *testing.T) {
	ledger, _, post := newLedger(t)
	reader := createUser(t, ledger.db, "reader")

	const toggles = 9
	var failures atomic.Int32
	var wg conc.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Go(func() {
			if _, err := ledger.ToggleLike(context.Background(), post.ID, reader.ID); err != nil {
				failures.Add(1)
			}
		})
	}
	wg.Wait()
	require.Zero(t, failures.Load())

	likes := count(t, ledger.db, &models.Like{}, "post_id = ? AND user_id = ?", post.ID, reader.ID)
	require.EqualValues(t, 1, likes)
	require.EqualValues(t, 1, reloadPost(t, ledger.db, post.ID).LikeCount)
}

func TestConcurrentLikesByManyUsers(t *testing.T) {
	ledger, _, post := newLedger(t)

	readers := make([]*models.User, 12)
	for i := range readers {
		readers[i] = createUser(t, ledger.db, "reader"+string(rune('a'+i)))
	}

	var wg conc.WaitGroup
	for _, reader := range readers {
		wg.Go(func() {
			_, err := ledger.ToggleLike(context.Background(), post.ID, reader.ID)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	stored := reloadPost(t, ledger.db, post.ID)
	require.EqualValues(t, len(readers), stored.LikeCount)
	require.EqualValues(t, len(readers), count(t, ledger.db, &models.Like{}, "post_id = ?", post.ID))
}

func TestIncrementViewBucketsByUTCDay(t *testing.T) {
	ledger, _, post := newLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.IncrementView(ctx, post.ID))
	require.NoError(t, ledger.IncrementView(ctx, post.ID))

	ledger.now = fixedClock(testNow.Add(24 * time.Hour))
	require.NoError(t, ledger.IncrementView(ctx, post.ID))

	require.EqualValues(t, 3, reloadPost(t, ledger.db, post.ID).ViewCount)

	var stats []models.DailyStat
	require.NoError(t, ledger.db.Where("post_id = ?", post.ID).Order("date").Find(&stats).Error)
	require.Len(t, stats, 2)
	require.Equal(t, "2024-06-15", stats[0].Date)
	require.EqualValues(t, 2, stats[0].Views)
	require.Equal(t, "2024-06-16", stats[1].Date)
	require.EqualValues(t, 1, stats[1].Views)
}

func TestIncrementViewIgnoresDraftsAndMissingPosts(t *testing.T) {
	ledger, author, _ := newLedger(t)
	draft := createPost(t, ledger.db, author)

	require.NoError(t, ledger.IncrementView(context.Background(), draft.ID))
	require.NoError(t, ledger.IncrementView(context.Background(), "missing"))

	require.Zero(t, reloadPost(t, ledger.db, draft.ID).ViewCount)
	require.Zero(t, count(t, ledger.db, &models.DailyStat{}, "1 = 1"))
}

func TestConcurrentViewsKeepOneDailyStat(t *testing.T) {
	ledger, _, post := newLedger(t)

	const views = 20
	var wg conc.WaitGroup
	for i := 0; i < views; i++ {
		wg.Go(func() {
			assert.NoError(t, ledger.IncrementView(context.Background(), post.ID))
		})
	}
	wg.Wait()

	require.EqualValues(t, views, reloadPost(t, ledger.db, post.ID).ViewCount)

	var stats []models.DailyStat
	require.NoError(t, ledger.db.Where("post_id = ?", post.ID).Find(&stats).Error)
	require.Len(t, stats, 1)
	require.EqualValues(t, views, stats[0].Views)
}

func TestInterleavedCountersStayNonNegative(t *testing.T) {
	ledger, _, post := newLedger(t)
	reader := createUser(t, ledger.db, "reader")

	var wg conc.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Go(func() {
			_, err := ledger.ToggleLike(context.Background(), post.ID, reader.ID)
			assert.NoError(t, err)
		})
		wg.Go(func() {
			assert.NoError(t, ledger.IncrementView(context.Background(), post.ID))
		})
	}
	wg.Wait()

	stored := reloadPost(t, ledger.db, post.ID)
	require.GreaterOrEqual(t, stored.LikeCount, int64(0))
	require.EqualValues(t, 10, stored.ViewCount)
	require.Zero(t, stored.LikeCount)
}
