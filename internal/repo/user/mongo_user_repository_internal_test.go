package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-checkout/internal/domain"
)

func TestMongoDatabaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DirectoryConfig
		want string
	}{
		{
			name: "database from uri path",
			cfg:  DirectoryConfig{URI: "mongodb://localhost:27017/shop"},
			want: "shop",
		},
		{
			name: "configured database wins",
			cfg:  DirectoryConfig{URI: "mongodb://localhost:27017/shop", Database: "checkout"},
			want: "checkout",
		},
		{
			name: "driver default without path",
			cfg:  DirectoryConfig{URI: "mongodb://localhost:27017"},
			want: defaultMongoDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := mongoDatabaseName(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMongoDatabaseNameInvalidURI(t *testing.T) {
	t.Parallel()

	_, err := mongoDatabaseName(DirectoryConfig{URI: "http://localhost:27017"})
	require.Error(t, err)
}

func TestNewMongoUserDocument(t *testing.T) {
	t.Parallel()

	doc := newMongoUser(&domain.User{Name: "Ada", Email: "ada@example.com", Password: "pw"})

	assert.False(t, doc.ID.IsZero())
	assert.Equal(t, int32(0), doc.Version)

	u := doc.toDomain()
	assert.Equal(t, doc.ID.Hex(), u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, doc.CreatedAt.Unix(), u.CreatedAt)
}

func TestEnsureOnce(t *testing.T) {
	t.Parallel()

	var (
		once  ensureOnce
		calls int
		fail  = errors.New("index build failed")
	)

	fn := func(context.Context) error {
		calls++
		if calls == 1 {
			return fail
		}

		return nil
	}

	ctx := context.Background()

	require.ErrorIs(t, once.Do(ctx, fn), fail)
	require.NoError(t, once.Do(ctx, fn), "a failed attempt is retried")
	require.NoError(t, once.Do(ctx, fn))
	assert.Equal(t, 2, calls, "no further attempts after success")
}

func TestNewMongoUserRepositoryUnreachable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo, err := NewMongoUserRepository(ctx, DirectoryConfig{
		URI:            "mongodb://127.0.0.1:1/checkout?serverSelectionTimeoutMS=200&connectTimeoutMS=200",
		Collection:     "users",
		ConnectTimeout: 300 * time.Millisecond,
		UniqueEmail:    true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.Error(t, repo.ConnectErr())
	require.Error(t, ConnectError(repo))
	assert.False(t, repo.emailIndex.done, "index is left for the first write")

	writeCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	_, _, err = repo.CreateUserIfAbsent(writeCtx, domain.NewUser("Ada", "ada@example.com", "pw"))
	require.Error(t, err)
	assert.False(t, repo.emailIndex.done, "failed index creation is retried later")

	assert.NoError(t, ConnectError(NewMemoryUserRepository(true)))
}
