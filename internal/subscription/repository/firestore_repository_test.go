package repository

import (
	"context"
	"os"
	"testing"
	"time"

	subdomain "portal-backend/internal/subscription/domain"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the Firestore emulator: FIRESTORE_EMULATOR_HOST=localhost:8080 go test ./...
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "demo-portal")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFirestoreSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewFirestoreSubscriptionRepository(newEmulatorClient(t))
	subscriber := "emp-" + uuid.NewString()

	created := time.Now().UTC().Truncate(time.Millisecond)
	sub := newSubscription(subscriber, "https://push.example.com/a", created)
	require.NoError(t, repo.Save(ctx, sub))

	refresh := newSubscription(subscriber, "https://push.example.com/a", created.Add(time.Hour))
	require.NoError(t, repo.Save(ctx, refresh))

	subs, err := repo.FindBySubscriberID(ctx, subscriber)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, subdomain.SubscriptionID(subscriber, "https://push.example.com/a"), subs[0].ID)
	assert.True(t, subs[0].CreatedAt.Equal(created))

	require.NoError(t, repo.Delete(ctx, sub.ID))
	require.NoError(t, repo.Delete(ctx, sub.ID))

	subs, err = repo.FindBySubscriberID(ctx, subscriber)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
