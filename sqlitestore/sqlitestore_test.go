package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/markblog"
	"github.com/hypergopher/markblog/sqlitestore"
)

var _ markblog.SubscriberStore = (*sqlitestore.SQLiteStore)(nil)

func setupTestEnvironment(t *testing.T) *sqlitestore.SQLiteStore {
	t.Helper()

	db, err := sqlitestore.NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)

	store := sqlitestore.New(db, "subscribers")
	require.NoError(t, store.Init())
	// Init is idempotent.
	require.NoError(t, store.Init())

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStore_AddGet(t *testing.T) {
	store := setupTestEnvironment(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 30, 15, 123, time.UTC)

	sub := &markblog.Subscriber{
		ID:        "id-1",
		Name:      "Ada",
		Email:     "Ada@Example.com",
		Interests: []string{"Design", "React"},
		CreatedAt: created,
	}
	require.NoError(t, store.Add(ctx, sub))

	got, err := store.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, []string{"Design", "React"}, got.Interests)
	assert.True(t, created.Equal(got.CreatedAt))

	dup := &markblog.Subscriber{ID: "id-2", Email: "ada@example.com", CreatedAt: created}
	assert.ErrorIs(t, store.Add(ctx, dup), markblog.ErrSubscriberExists)

	_, err = store.Get(ctx, "missing@example.com")
	assert.ErrorIs(t, err, markblog.ErrSubscriberNotFound)
}

func TestSQLiteStore_ListDelete(t *testing.T) {
	store := setupTestEnvironment(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	cases := []struct {
		id     string
		email  string
		offset time.Duration
	}{
		{"3", "c@example.com", 2 * time.Hour},
		{"1", "a@example.com", 0},
		{"2", "b@example.com", time.Hour},
	}
	for _, tc := range cases {
		require.NoError(t, store.Add(ctx, &markblog.Subscriber{
			ID:        tc.id,
			Email:     tc.email,
			CreatedAt: base.Add(tc.offset),
		}))
	}

	subs, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"},
		[]string{subs[0].Email, subs[1].Email, subs[2].Email})
	assert.Equal(t, []string{}, subs[0].Interests)

	require.NoError(t, store.Delete(ctx, "B@example.com"))
	assert.ErrorIs(t, store.Delete(ctx, "b@example.com"), markblog.ErrSubscriberNotFound)

	subs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSQLiteStore_NewSubscriber(t *testing.T) {
	store := setupTestEnvironment(t)
	ctx := context.Background()

	sub, err := markblog.NewSubscriber("Grace", "grace@example.com", []string{"Design"}, markblog.DefaultInterests)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, sub))

	got, err := store.Get(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)
	assert.True(t, sub.CreatedAt.Equal(got.CreatedAt))
}
