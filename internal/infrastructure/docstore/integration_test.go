package docstore

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
)

func TestFirestoreStore_Conformance(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "foodshare-test")
	require.NoError(t, err)

	store := NewFirestoreStore(client)
	defer store.Close()
	testStoreConformance(t, store)
}

func TestMongoStore_Conformance(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx := context.Background()
	store, err := ConnectMongo(ctx, uri, "foodshare_test")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EnsureIndexes(ctx))
	testStoreConformance(t, store)
}
