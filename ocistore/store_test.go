package ocistore_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content/memory"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/cache/disk"
	"github.com/meigma/propbag/internal/testutil"
	"github.com/meigma/propbag/ocistore"
)

func TestPushFetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ocistore.New(memory.New())
	buf := propbag.Encode(testutil.FullBag())

	desc, err := s.Push(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, propbag.Descriptor(buf), desc)
	assert.Equal(t, propbag.MediaType, desc.MediaType)

	ok, err := s.Exists(ctx, desc)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := s.Fetch(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, buf, v.Bytes())

	bag, err := s.FetchBag(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, testutil.FullBag(), bag)

	again, err := s.Push(ctx, buf)
	require.NoError(t, err, "pushing existing content succeeds")
	assert.Equal(t, desc, again)
}

func TestPushBag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ocistore.New(memory.New())

	desc, err := s.PushBag(ctx, testutil.ExampleBag())
	require.NoError(t, err)

	bag, err := s.FetchBag(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, testutil.ExampleBag(), bag)
}

func TestPushRejectsInvalidBuffers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ocistore.New(memory.New())

	_, err := s.Push(ctx, nil)
	assert.ErrorIs(t, err, propbag.ErrIdentifierMismatch)

	_, err = s.Push(ctx, propbag.Encode(testutil.FullBag(), propbag.WithoutIdentifier()))
	assert.ErrorIs(t, err, propbag.ErrIdentifierMismatch)
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ocistore.New(memory.New())
	buf := propbag.Encode(testutil.FullBag())

	tests := []struct {
		name string
		desc ocispec.Descriptor
		want error
	}{
		{name: "not found", desc: propbag.Descriptor(buf), want: ocistore.ErrNotFound},
		{name: "empty digest", desc: ocispec.Descriptor{MediaType: propbag.MediaType}, want: ocistore.ErrInvalidDescriptor},
		{name: "invalid digest", desc: ocispec.Descriptor{Digest: "sha256:zz", Size: 1}, want: ocistore.ErrInvalidDescriptor},
		{name: "negative size", desc: ocispec.Descriptor{Digest: digest.FromBytes(buf), Size: -1}, want: ocistore.ErrInvalidDescriptor},
		{
			name: "wrong media type",
			desc: ocispec.Descriptor{MediaType: ocispec.MediaTypeImageLayer, Digest: digest.FromBytes(buf), Size: int64(len(buf))},
			want: ocistore.ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := s.Fetch(ctx, tt.desc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchRejectsForeignBlob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	target := memory.New()
	s := ocistore.New(target)

	// A blob without the identifier pushed around the Store.
	buf := propbag.Encode(testutil.FullBag(), propbag.WithoutIdentifier())
	desc := propbag.Descriptor(buf)
	require.NoError(t, target.Push(ctx, desc, bytes.NewReader(buf)))

	_, err := s.Fetch(ctx, desc)
	assert.ErrorIs(t, err, propbag.ErrIdentifierMismatch)
}

func TestPushTagged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := ocistore.New(memory.New())
	buf := propbag.Encode(testutil.FullBag())

	manifest, err := s.PushTagged(ctx, buf, "v1", map[string]string{"org.example.run": "42"})
	require.NoError(t, err)
	assert.Equal(t, ocispec.MediaTypeImageManifest, manifest.MediaType)
	assert.Equal(t, ocistore.ArtifactType, manifest.ArtifactType)

	layer, err := s.Resolve(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, propbag.Descriptor(buf), layer)

	v, err := s.FetchTagged(ctx, "v1")
	require.NoError(t, err)
	bag, err := v.Bag()
	require.NoError(t, err)
	assert.Equal(t, testutil.FullBag(), bag)

	_, err = s.FetchTagged(ctx, "missing")
	assert.ErrorIs(t, err, ocistore.ErrNotFound)
}

func TestLayoutStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s, err := ocistore.NewLayout(dir)
	require.NoError(t, err)

	buf := propbag.Encode(testutil.ExampleBag())
	_, err = s.PushTagged(ctx, buf, "latest", nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "index.json"))

	reopened, err := ocistore.NewLayout(dir)
	require.NoError(t, err)
	v, err := reopened.FetchTagged(ctx, "latest")
	require.NoError(t, err)
	assert.Equal(t, buf, v.Bytes())
}

func TestFetchThroughCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, err := disk.New(t.TempDir())
	require.NoError(t, err)

	target := memory.New()
	pusher := ocistore.New(target)
	buf := propbag.Encode(testutil.FullBag())
	desc, err := pusher.Push(ctx, buf)
	require.NoError(t, err)

	s := ocistore.New(target, ocistore.WithCache(c))
	v, err := s.Fetch(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, buf, v.Bytes())

	cached, ok := c.Get(desc.Digest)
	require.True(t, ok, "fetch fills the cache")
	assert.Equal(t, buf, cached)

	// A store over an empty target still serves the digest from the cache.
	offline := ocistore.New(memory.New(), ocistore.WithCache(c))
	bag, err := offline.FetchBag(ctx, desc)
	require.NoError(t, err)
	assert.Equal(t, testutil.FullBag(), bag)
}
