package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quillpost-api/database/dbtest"
	"quillpost-api/models"
)

func TestGetPageHasMore(t *testing.T) {
	for _, tc := range []struct {
		name    string
		rows    int
		items   int
		hasMore bool
	}{
		{"three rows", 3, 2, true},
		{"exactly two rows", 2, 2, false},
		{"no rows", 0, 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db := dbtest.New(t)
			author := createUser(t, db, "author")
			for i := 0; i < tc.rows; i++ {
				at := testNow.Add(time.Duration(i) * time.Minute)
				createPost(t, db, author, published(at), createdAt(at))
			}

			page, err := NewFeedAssembler(db).GetPage(context.Background(), PageRequest{
				Filter:     PublishedPosts,
				Descending: true,
				Limit:      2,
			})
			require.NoError(t, err)
			require.Len(t, page.Posts, tc.items)
			require.Equal(t, tc.hasMore, page.HasMore)
			require.Equal(t, tc.hasMore, page.NextCursor != nil)
		})
	}
}

func TestGetPageRejectsMissingLimit(t *testing.T) {
	_, err := NewFeedAssembler(dbtest.New(t)).GetPage(context.Background(), PageRequest{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetPageCursorWalk(t *testing.T) {
	db := dbtest.New(t)
	author := createUser(t, db, "author")

	var want []string
	for i := 0; i < 5; i++ {
		at := testNow.Add(time.Duration(i) * time.Minute)
		want = append([]string{createPost(t, db, author, published(at), createdAt(at)).ID}, want...)
	}
	createPost(t, db, author)

	assembler := NewFeedAssembler(db)
	var got []string
	cursor := ""
	for {
		page, err := assembler.GetPage(context.Background(), PageRequest{
			Filter:     PublishedPosts,
			Descending: true,
			Limit:      2,
			Cursor:     cursor,
		})
		require.NoError(t, err)
		for _, item := range page.Posts {
			got = append(got, item.ID)
		}
		if !page.HasMore {
			break
		}
		cursor = *page.NextCursor
	}
	require.Equal(t, want, got)
}

func TestGetPageDropsPostsWithMissingAuthor(t *testing.T) {
	db := dbtest.New(t)
	author := createUser(t, db, "author")
	ghost := &models.User{ID: "ghost", Username: "ghost"}

	createPost(t, db, author, published(testNow), createdAt(testNow))
	createPost(t, db, ghost, published(testNow), createdAt(testNow.Add(time.Minute)))
	createPost(t, db, author, published(testNow), createdAt(testNow.Add(-time.Minute)))

	page, err := NewFeedAssembler(db).GetPage(context.Background(), PageRequest{
		Filter:     PublishedPosts,
		Descending: true,
		Limit:      2,
	})
	require.NoError(t, err)
	require.True(t, page.HasMore)
	require.Len(t, page.Posts, 1)
	require.Equal(t, author.ID, page.Posts[0].Author.ID)
}

func TestTrendingPosts(t *testing.T) {
	db := dbtest.New(t)
	feed := NewFeedService(db)
	feed.now = fixedClock(testNow)

	author := createUser(t, db, "author")
	hot := createPost(t, db, author, published(testNow.Add(-time.Hour)), counters(10, 10))
	warm := createPost(t, db, author, published(testNow.Add(-2*time.Hour)), counters(20, 0))
	createPost(t, db, author, published(testNow.Add(-10*24*time.Hour)), counters(500, 500))
	createPost(t, db, author, counters(500, 500))

	posts, err := feed.GetTrendingPosts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, hot.ID, posts[0].ID)
	require.EqualValues(t, 40, posts[0].TrendingScore)
	require.Equal(t, warm.ID, posts[1].ID)
	require.Equal(t, "author", posts[0].Author.Username)
}

func TestSuggestedUsers(t *testing.T) {
	db := dbtest.New(t)
	feed := NewFeedService(db)
	feed.now = fixedClock(testNow)

	me := createUser(t, db, "me")
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")
	followed := createUser(t, db, "followed")

	createPost(t, db, a)
	createPost(t, db, b, published(testNow.Add(-24*time.Hour)), counters(50, 0))
	createPost(t, db, c, published(testNow.Add(-10*24*time.Hour)), counters(1000, 0))
	createPost(t, db, followed, published(testNow.Add(-time.Hour)), counters(9999, 0))
	createPost(t, db, me, published(testNow.Add(-time.Hour)), counters(9999, 0))
	require.NoError(t, db.Create(&models.Follow{FollowerID: me.ID, FollowingID: followed.ID, CreatedAt: testNow}).Error)

	users, err := feed.GetSuggestedUsers(context.Background(), identityOf(me), 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, b.ID, users[0].ID)
	require.EqualValues(t, 50, users[0].EngagementScore)
	require.Equal(t, 1, users[0].PostCount)
	require.Len(t, users[0].RecentPosts, 1)
	require.Equal(t, c.ID, users[1].ID)

	anonymous, err := feed.GetSuggestedUsers(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, anonymous, 4)
}

func TestPublishedPostsByUsername(t *testing.T) {
	db := dbtest.New(t)
	feed := NewFeedService(db)
	author := createUser(t, db, "author")
	other := createUser(t, db, "other")

	post := createPost(t, db, author, published(testNow))
	draft := createPost(t, db, author)
	createPost(t, db, other, published(testNow))

	page, err := feed.GetPublishedPostsByUsername(context.Background(), "author", 10, "")
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, post.ID, page.Posts[0].ID)

	empty, err := feed.GetPublishedPostsByUsername(context.Background(), "nobody", 10, "")
	require.NoError(t, err)
	require.Empty(t, empty.Posts)
	require.False(t, empty.HasMore)

	got, err := feed.GetPublishedPost(context.Background(), "author", post.ID)
	require.NoError(t, err)
	require.Equal(t, "author", got.Author.Username)

	_, err = feed.GetPublishedPost(context.Background(), "author", draft.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = feed.GetPublishedPost(context.Background(), "other", post.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
