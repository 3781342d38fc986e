//go:build integration

package user_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mkrupp/homecase-checkout/internal/domain"
	"github.com/mkrupp/homecase-checkout/internal/repo/user"
)

const mongoPort = "27017"

func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{mongoPort + "/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, mongoPort)
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestMongoUserRepository(t *testing.T) {
	ctx := context.Background()
	uri := startMongo(ctx, t)

	var n int

	runRepositoryContract(t, func(t *testing.T, uniqueEmail bool) user.Repository {
		t.Helper()

		n++

		repo, err := user.OpenDirectory(ctx, user.DirectoryConfig{
			URI:            uri,
			Database:       fmt.Sprintf("checkout_%d", n),
			Collection:     "users",
			ConnectTimeout: 30 * time.Second,
			UniqueEmail:    uniqueEmail,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })

		return repo
	})
}

func TestMongoUserRepositoryIndexAfterFailedPing(t *testing.T) {
	ctx := context.Background()
	uri := startMongo(ctx, t)

	// a cancelled startup context makes the ping fail like an unreachable server
	startCtx, cancel := context.WithCancel(ctx)
	cancel()

	repo, err := user.NewMongoUserRepository(startCtx, user.DirectoryConfig{
		URI:            uri,
		Database:       "checkout_late_index",
		Collection:     "users",
		ConnectTimeout: 30 * time.Second,
		UniqueEmail:    true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.Error(t, repo.ConnectErr())

	const workers = 8

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]struct{}{}
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			u, _, err := repo.CreateUserIfAbsent(ctx, domain.NewUser("Ada", "late@example.com", "pw"))
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()

			ids[u.ID] = struct{}{}
		}()
	}

	wg.Wait()

	assert.Len(t, ids, 1)

	err = repo.CreateUser(ctx, domain.NewUser("Eve", "late@example.com", "pw"))
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists, "unique email index exists")
}
