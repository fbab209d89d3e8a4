package ocistore

import "errors"

var (
	// ErrNotFound is returned when a blob or reference is not in the store.
	ErrNotFound = errors.New("ocistore: not found")

	// ErrInvalidDescriptor is returned when a descriptor is missing a digest,
	// has a negative size or does not describe a property bag.
	ErrInvalidDescriptor = errors.New("ocistore: invalid descriptor")

	// ErrInvalidReference is returned when a remote repository reference
	// cannot be parsed.
	ErrInvalidReference = errors.New("ocistore: invalid reference")

	// ErrInvalidManifest is returned when a tagged manifest does not carry a
	// property bag layer.
	ErrInvalidManifest = errors.New("ocistore: invalid property bag manifest")
)
