// Package ocistore stores encoded property bags as OCI blobs.
//
// A Store works over any oras target: an in-memory store, an OCI image
// layout on disk or a remote repository. Bags are pushed as blobs with the
// propbag media type and can be tagged through a small OCI 1.1 artifact
// manifest whose single layer is the bag.
package ocistore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/cache"
)

// ArtifactType is the artifact type of manifests written by PushTagged.
const ArtifactType = "application/vnd.onnxruntime.propertybag.v1"

// maxManifestSize bounds how much of a tagged manifest is read.
const maxManifestSize = 4 << 20

// Store pushes and fetches property bags through an oras target.
// A Store is safe for concurrent use if its target is.
type Store struct {
	target oras.Target
	cache  cache.Cache
	logger *slog.Logger
	remote remoteConfig
}

// Option configures a Store.
type Option func(*Store)

// WithCache serves fetches from c when possible and fills it on a miss.
func WithCache(c cache.Cache) Option {
	return func(s *Store) {
		s.cache = c
	}
}

// WithLogger sets the logger for push and fetch events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over target.
func New(target oras.Target, opts ...Option) *Store {
	s := &Store{target: target}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// NewLayout creates a Store backed by an OCI image layout rooted at dir.
// The directory is created if it does not exist.
func NewLayout(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	target, err := oci.New(dir)
	if err != nil {
		return nil, fmt.Errorf("open oci layout %s: %w", dir, err)
	}
	return New(target, opts...), nil
}

// Push verifies buf and stores it as a blob. Pushing content that is already
// present succeeds.
func (s *Store) Push(ctx context.Context, buf []byte) (ocispec.Descriptor, error) {
	if err := propbag.Verify(buf); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push: %w", err)
	}
	desc := propbag.Descriptor(buf)
	if err := s.pushIfNotExist(ctx, desc, buf); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push %s: %w", desc.Digest, err)
	}
	if s.cache != nil {
		_, _ = s.cache.Put(buf) //nolint:errcheck // caching is opportunistic
	}
	s.logger.Debug("bag pushed", slog.String("digest", desc.Digest.String()), slog.Int64("size", desc.Size))
	return desc, nil
}

// PushBag encodes bag and pushes it.
func (s *Store) PushBag(ctx context.Context, bag propbag.Bag) (ocispec.Descriptor, error) {
	return s.Push(ctx, propbag.Encode(bag))
}

// Exists reports whether the blob described by desc is in the store.
func (s *Store) Exists(ctx context.Context, desc ocispec.Descriptor) (bool, error) {
	if err := validateDescriptor(&desc); err != nil {
		return false, err
	}
	ok, err := s.target.Exists(ctx, desc)
	if err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

// Fetch reads the blob described by desc and opens it. The content is
// checked against the descriptor's digest and size before it is parsed.
func (s *Store) Fetch(ctx context.Context, desc ocispec.Descriptor) (propbag.View, error) {
	if err := validateDescriptor(&desc); err != nil {
		return propbag.View{}, err
	}
	buf, err := s.fetchBlob(ctx, desc)
	if err != nil {
		return propbag.View{}, fmt.Errorf("fetch %s: %w", desc.Digest, err)
	}
	if !propbag.HasIdentifier(buf, 0, false) {
		return propbag.View{}, fmt.Errorf("fetch %s: %w", desc.Digest, propbag.ErrIdentifierMismatch)
	}
	v, err := propbag.Open(buf, 0)
	if err != nil {
		return propbag.View{}, fmt.Errorf("fetch %s: %w", desc.Digest, err)
	}
	return v, nil
}

// FetchBag fetches the blob described by desc and decodes it.
func (s *Store) FetchBag(ctx context.Context, desc ocispec.Descriptor) (propbag.Bag, error) {
	v, err := s.Fetch(ctx, desc)
	if err != nil {
		return propbag.Bag{}, err
	}
	return v.Bag()
}

// PushTagged pushes buf, wraps it in an artifact manifest and tags the
// manifest with ref. It returns the manifest descriptor.
func (s *Store) PushTagged(ctx context.Context, buf []byte, ref string, annotations map[string]string) (ocispec.Descriptor, error) {
	layer, err := s.Push(ctx, buf)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	config := ocispec.DescriptorEmptyJSON
	if err := s.pushIfNotExist(ctx, config, config.Data); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push config: %w", err)
	}

	manifestBytes, err := json.Marshal(buildManifest(config, layer, annotations))
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("encode manifest: %w", err)
	}
	manifestDesc := content.NewDescriptorFromBytes(ocispec.MediaTypeImageManifest, manifestBytes)
	manifestDesc.ArtifactType = ArtifactType
	if err := s.pushIfNotExist(ctx, manifestDesc, manifestBytes); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest: %w", err)
	}
	if err := s.target.Tag(ctx, manifestDesc, ref); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("tag %s: %w", ref, mapError(err))
	}
	s.logger.Debug("bag tagged",
		slog.String("ref", ref),
		slog.String("manifest", manifestDesc.Digest.String()),
		slog.String("layer", layer.Digest.String()))
	return manifestDesc, nil
}

// Resolve returns the property bag layer descriptor tagged as ref.
func (s *Store) Resolve(ctx context.Context, ref string) (ocispec.Descriptor, error) {
	manifestDesc, err := s.target.Resolve(ctx, ref)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("resolve %s: %w", ref, mapError(err))
	}
	if manifestDesc.Size > maxManifestSize {
		return ocispec.Descriptor{}, fmt.Errorf("%w: manifest size %d exceeds limit", ErrInvalidManifest, manifestDesc.Size)
	}
	manifestBytes, err := content.FetchAll(ctx, s.target, manifestDesc)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("fetch manifest %s: %w", manifestDesc.Digest, mapError(err))
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if manifest.ArtifactType != ArtifactType {
		return ocispec.Descriptor{}, fmt.Errorf("%w: artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}
	for _, layer := range manifest.Layers {
		if layer.MediaType == propbag.MediaType {
			return layer, nil
		}
	}
	return ocispec.Descriptor{}, fmt.Errorf("%w: no %s layer", ErrInvalidManifest, propbag.MediaType)
}

// FetchTagged resolves ref and fetches its property bag.
func (s *Store) FetchTagged(ctx context.Context, ref string) (propbag.View, error) {
	desc, err := s.Resolve(ctx, ref)
	if err != nil {
		return propbag.View{}, err
	}
	return s.Fetch(ctx, desc)
}

func (s *Store) fetchBlob(ctx context.Context, desc ocispec.Descriptor) ([]byte, error) {
	load := func() ([]byte, error) {
		buf, err := content.FetchAll(ctx, s.target, desc)
		if err != nil {
			return nil, mapError(err)
		}
		return buf, nil
	}
	switch c := s.cache.(type) {
	case nil:
		return load()
	case cache.Loader:
		return c.GetOrLoad(desc.Digest, load)
	default:
		if buf, ok := c.Get(desc.Digest); ok && int64(len(buf)) == desc.Size {
			s.logger.Debug("bag served from cache", slog.String("digest", desc.Digest.String()))
			return buf, nil
		}
		buf, err := load()
		if err != nil {
			return nil, err
		}
		_, _ = c.Put(buf) //nolint:errcheck // caching is opportunistic
		return buf, nil
	}
}

func (s *Store) pushIfNotExist(ctx context.Context, desc ocispec.Descriptor, data []byte) error {
	ok, err := s.target.Exists(ctx, desc)
	if err != nil {
		return mapError(err)
	}
	if ok {
		return nil
	}
	err = s.target.Push(ctx, desc, bytes.NewReader(data))
	if err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return mapError(err)
	}
	return nil
}

func buildManifest(config, layer ocispec.Descriptor, customAnnotations map[string]string) ocispec.Manifest {
	annotations := make(map[string]string, len(customAnnotations)+1)
	for k, v := range customAnnotations {
		annotations[k] = v
	}
	if _, ok := annotations[ocispec.AnnotationCreated]; !ok {
		annotations[ocispec.AnnotationCreated] = time.Now().UTC().Format(time.RFC3339)
	}
	config.Data = nil
	return ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactType,
		Config:       config,
		Layers:       []ocispec.Descriptor{layer},
		Annotations:  annotations,
	}
}

// validateDescriptor checks that desc describes a property bag blob.
func validateDescriptor(desc *ocispec.Descriptor) error {
	if desc.Size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidDescriptor, desc.Size)
	}
	if desc.Digest == "" {
		return fmt.Errorf("%w: empty digest", ErrInvalidDescriptor)
	}
	if err := desc.Digest.Validate(); err != nil {
		return fmt.Errorf("%w: invalid digest %q: %v", ErrInvalidDescriptor, desc.Digest, err)
	}
	if desc.MediaType != "" && desc.MediaType != propbag.MediaType {
		return fmt.Errorf("%w: media type %q", ErrInvalidDescriptor, desc.MediaType)
	}
	return nil
}

// mapError maps oras errors to our sentinel errors.
func mapError(err error) error {
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
