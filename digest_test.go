package propbag_test

import (
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/internal/testutil"
)

func TestDescriptor(t *testing.T) {
	t.Parallel()

	buf := propbag.Encode(testutil.FullBag())
	desc := propbag.Descriptor(buf)

	assert.Equal(t, propbag.MediaType, desc.MediaType)
	assert.Equal(t, int64(len(buf)), desc.Size)
	assert.Equal(t, digest.SHA256, desc.Digest.Algorithm())
	require.NoError(t, desc.Digest.Validate())

	// Encoding is deterministic, so equal bags share a digest.
	assert.Equal(t, desc.Digest, propbag.Digest(propbag.Encode(testutil.FullBag())))
	assert.NotEqual(t, desc.Digest, propbag.Digest(propbag.Encode(testutil.ExampleBag())))
}
