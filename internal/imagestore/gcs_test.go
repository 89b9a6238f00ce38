package imagestore

import (
	"context"
	"strings"
	"testing"

	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "fairshare-bills"

func newFakeGCSStore(t *testing.T) (*GCSStore, *fakestorage.Server) {
	t.Helper()
	server, err := fakestorage.NewServerWithOptions(fakestorage.Options{NoListener: true})
	require.NoError(t, err)
	t.Cleanup(server.Stop)
	server.CreateBucketWithOpts(fakestorage.CreateBucketOpts{Name: testBucket})

	return NewGCSStoreWithClient(server.Client(), testBucket), server
}

func TestGCSStore(t *testing.T) {
	store, server := newFakeGCSStore(t)
	ctx := context.Background()

	ref, err := store.Store(ctx, "event-1", "", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "event-1/"), "ref %q should live under the event", ref)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	obj, err := server.GetObject(testBucket, ref)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)

	data, err := store.Retrieve(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	require.NoError(t, store.Delete(ctx, ref))
	assert.NoError(t, store.Delete(ctx, ref), "deleting twice is fine")
}

func TestGCSStore_MissingObjectIsNotFound(t *testing.T) {
	store, _ := newFakeGCSStore(t)

	_, err := store.Retrieve(context.Background(), "event-1/vanished.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewGCSStore_RequiresBucket(t *testing.T) {
	_, err := NewGCSStore(context.Background(), "", "")
	assert.Error(t, err)
}
