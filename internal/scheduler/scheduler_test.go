package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/CineList/internal/auth"
	"github.com/JustinTDCT/CineList/internal/db/dbtest"
	"github.com/JustinTDCT/CineList/internal/watchlist"
)

type fakeSweeper struct {
	ids []string
	err error
}

func (f *fakeSweeper) DeleteEndedSessions(context.Context, time.Time) ([]string, error) {
	return f.ids, f.err
}

type recordingEnder struct {
	discarded []string
}

func (r *recordingEnder) Discard(ids ...string) {
	r.discarded = append(r.discarded, ids...)
}

func TestSweepSessionsDiscardsWatchlists(t *testing.T) {
	database := dbtest.Open(t)
	repo := auth.NewRepository(database)
	ctx := context.Background()

	account := &auth.Account{Name: "Sam", Email: "sam@example.com", PasswordHash: "x"}
	require.NoError(t, repo.CreateAccount(ctx, account))

	expired, err := repo.CreateSession(ctx, account.ID, time.Minute)
	require.NoError(t, err)
	live, err := repo.CreateSession(ctx, account.ID, 24*time.Hour)
	require.NoError(t, err)

	registry := watchlist.NewRegistry()
	expiredList := registry.For(expired.ID)
	expiredList.Add(watchlist.Movie{ID: 1, Title: "Heat"})
	registry.For(live.ID).Add(watchlist.Movie{ID: 2, Title: "Ran"})

	s := New(repo, registry, time.Minute)
	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	s.SweepSessions()

	select {
	case <-expiredList.Done():
	default:
		t.Fatal("expired session's watchlist should be closed")
	}
	_, ok := registry.Lookup(expired.ID)
	assert.False(t, ok)

	still, ok := registry.Lookup(live.ID)
	require.True(t, ok)
	assert.True(t, still.Contains(2))

	_, err = repo.GetSession(ctx, expired.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestSweepSessionsErrors(t *testing.T) {
	ender := &recordingEnder{}
	s := New(&fakeSweeper{err: errors.New("db down")}, ender, time.Minute)
	s.SweepSessions()
	assert.Empty(t, ender.discarded)

	s = New(&fakeSweeper{ids: []string{"a", "b"}}, ender, time.Minute)
	s.SweepSessions()
	assert.Equal(t, []string{"a", "b"}, ender.discarded)
}

func TestStartRejectsBadInterval(t *testing.T) {
	s := New(&fakeSweeper{}, &recordingEnder{}, 0)
	assert.Error(t, s.Start())

	s = New(&fakeSweeper{}, &recordingEnder{}, time.Hour)
	require.NoError(t, s.Start())
	s.Stop()
}
