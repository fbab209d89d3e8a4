// Package stream reads and writes sequences of property bags.
//
// A stream is a concatenation of size-prefixed PropertyBag buffers: each
// frame starts with its length as a 4-byte little-endian integer followed by
// the root offset, the ORTM identifier and the bag itself. The whole sequence
// may be wrapped in a zstd or lz4 frame; readers detect the compression from
// the first bytes of the stream.
package stream
