package propbag

import flatbuffers "github.com/google/flatbuffers/go"

const identifierLength = len(Identifier)

// HasIdentifier reports whether the ORTM file identifier follows the root
// offset at offset. When sizePrefixed is true, the root offset is expected
// after a 4-byte size prefix. Buffers too short to hold the identifier report
// false.
func HasIdentifier(buf []byte, offset uint32, sizePrefixed bool) bool {
	pos := uint64(offset) + flatbuffers.SizeUOffsetT
	if sizePrefixed {
		pos += flatbuffers.SizeUint32
	}
	if pos+uint64(identifierLength) > uint64(len(buf)) {
		return false
	}
	return string(buf[pos:pos+uint64(identifierLength)]) == Identifier
}
