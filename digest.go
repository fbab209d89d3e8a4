package propbag

import (
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// MediaType identifies an encoded property bag when stored as an OCI blob.
const MediaType = "application/vnd.onnxruntime.propertybag.v1+flatbuffers"

// Digest returns the canonical (sha256) digest of an encoded bag.
func Digest(buf []byte) digest.Digest {
	return digest.FromBytes(buf)
}

// Descriptor returns an OCI descriptor for an encoded bag.
func Descriptor(buf []byte) ocispec.Descriptor {
	return ocispec.Descriptor{
		MediaType: MediaType,
		Digest:    Digest(buf),
		Size:      int64(len(buf)),
	}
}
