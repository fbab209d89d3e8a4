package propbag

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/propbag/internal/fb"
)

// PropertyOffset is a finished property table, usable as a vector element.
type PropertyOffset struct {
	off   flatbuffers.UOffsetT
	field Field
}

// VectorOffset is a finished property vector, usable as a bag field.
type VectorOffset struct {
	off   flatbuffers.UOffsetT
	field Field
}

// BagOffset is a finished PropertyBag table, usable as a buffer root.
type BagOffset struct {
	off flatbuffers.UOffsetT
}

type builderState uint8

const (
	stateIdle builderState = iota
	stateVector
	stateBag
	stateFinished
)

func (s builderState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateVector:
		return "building a vector"
	case stateBag:
		return "building a bag"
	case stateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Builder writes a property bag into a FlatBuffers buffer.
//
// The buffer grows backward from its end, so children are written before
// their parents: properties first, then the vectors holding them (elements
// prepended last to first), then the bag itself. Calls made out of that order
// panic with an error wrapping ErrBuilderMisuse.
//
// A Builder is single-writer and must not be used concurrently.
type Builder struct {
	fbb   *flatbuffers.Builder
	state builderState

	// Open vector.
	vecField Field
	vecWant  int
	vecHave  int

	// Fields added to the open bag.
	added [numBagFields]bool
}

// NewBuilder returns a Builder with the given starting capacity.
func NewBuilder(initialSize int) *Builder {
	if initialSize <= 0 {
		initialSize = DefaultInitialSize
	}
	return &Builder{fbb: flatbuffers.NewBuilder(initialSize)}
}

// Reset discards all written data so the Builder can be reused. Buffers
// returned by an earlier Finish must not be used after Reset.
func (b *Builder) Reset() {
	b.fbb.Reset()
	b.state = stateIdle
	b.vecHave, b.vecWant = 0, 0
	b.added = [numBagFields]bool{}
}

func (b *Builder) misuse(format string, args ...any) {
	panic(fmt.Errorf("%w: %s (builder is %s)", ErrBuilderMisuse, fmt.Sprintf(format, args...), b.state))
}

func (b *Builder) require(want builderState, op string) {
	if b.state != want {
		b.misuse("%s requires the builder to be %s", op, want)
	}
}

// CreateIntProperty writes an IntProperty table.
func (b *Builder) CreateIntProperty(name string, value int64) PropertyOffset {
	b.require(stateIdle, "CreateIntProperty")
	nameOff := b.fbb.CreateString(name)
	fb.IntPropertyStart(b.fbb)
	fb.IntPropertyAddName(b.fbb, nameOff)
	fb.IntPropertyAddValue(b.fbb, value)
	return PropertyOffset{off: fb.IntPropertyEnd(b.fbb), field: FieldInts}
}

// CreateFloatProperty writes a FloatProperty table.
func (b *Builder) CreateFloatProperty(name string, value float32) PropertyOffset {
	b.require(stateIdle, "CreateFloatProperty")
	nameOff := b.fbb.CreateString(name)
	fb.FloatPropertyStart(b.fbb)
	fb.FloatPropertyAddName(b.fbb, nameOff)
	fb.FloatPropertyAddValue(b.fbb, value)
	return PropertyOffset{off: fb.FloatPropertyEnd(b.fbb), field: FieldFloats}
}

// CreateStringProperty writes a StringProperty table.
func (b *Builder) CreateStringProperty(name, value string) PropertyOffset {
	b.require(stateIdle, "CreateStringProperty")
	nameOff := b.fbb.CreateString(name)
	valueOff := b.fbb.CreateString(value)
	fb.StringPropertyStart(b.fbb)
	fb.StringPropertyAddName(b.fbb, nameOff)
	fb.StringPropertyAddValue(b.fbb, valueOff)
	return PropertyOffset{off: fb.StringPropertyEnd(b.fbb), field: FieldStrings}
}

// StartIntsVector begins a vector of n IntProperty offsets.
func (b *Builder) StartIntsVector(n int) {
	b.startVector(FieldInts, n, fb.PropertyBagStartIntsVector)
}

// StartFloatsVector begins a vector of n FloatProperty offsets.
func (b *Builder) StartFloatsVector(n int) {
	b.startVector(FieldFloats, n, fb.PropertyBagStartFloatsVector)
}

// StartStringsVector begins a vector of n StringProperty offsets.
func (b *Builder) StartStringsVector(n int) {
	b.startVector(FieldStrings, n, fb.PropertyBagStartStringsVector)
}

func (b *Builder) startVector(field Field, n int, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT) {
	b.require(stateIdle, "Start"+vectorName(field)+"Vector")
	if n < 0 {
		b.misuse("negative vector length %d", n)
	}
	start(b.fbb, n)
	b.state = stateVector
	b.vecField = field
	b.vecWant = n
	b.vecHave = 0
}

// PrependOffset adds one element to the open vector. Elements are prepended,
// so the last element must be written first.
func (b *Builder) PrependOffset(p PropertyOffset) {
	b.require(stateVector, "PrependOffset")
	if p.field != b.vecField {
		b.misuse("%s property prepended to %s vector", p.field, b.vecField)
	}
	if b.vecHave == b.vecWant {
		b.misuse("vector of %d elements is already full", b.vecWant)
	}
	b.fbb.PrependUOffsetT(p.off)
	b.vecHave++
}

// EndVector closes the open vector. Every declared element must have been
// prepended.
func (b *Builder) EndVector() VectorOffset {
	b.require(stateVector, "EndVector")
	if b.vecHave != b.vecWant {
		b.misuse("vector declared with %d elements has %d", b.vecWant, b.vecHave)
	}
	off := b.fbb.EndVector(b.vecWant)
	b.state = stateIdle
	return VectorOffset{off: off, field: b.vecField}
}

// StartBag begins a PropertyBag table. It must be paired with EndBag.
func (b *Builder) StartBag() {
	b.require(stateIdle, "StartBag")
	fb.PropertyBagStart(b.fbb)
	b.state = stateBag
	b.added = [numBagFields]bool{}
}

// AddInts sets the ints field of the open bag. Not calling it leaves the
// field absent.
func (b *Builder) AddInts(v VectorOffset) {
	b.addField(FieldInts, v, fb.PropertyBagAddInts)
}

// AddFloats sets the floats field of the open bag.
func (b *Builder) AddFloats(v VectorOffset) {
	b.addField(FieldFloats, v, fb.PropertyBagAddFloats)
}

// AddStrings sets the strings field of the open bag.
func (b *Builder) AddStrings(v VectorOffset) {
	b.addField(FieldStrings, v, fb.PropertyBagAddStrings)
}

func (b *Builder) addField(field Field, v VectorOffset, add func(*flatbuffers.Builder, flatbuffers.UOffsetT)) {
	b.require(stateBag, "Add"+vectorName(field))
	if v.field != field {
		b.misuse("%s vector added as %s", v.field, field)
	}
	if v.off == 0 {
		b.misuse("zero %s vector offset", field)
	}
	if b.added[field] {
		b.misuse("%s added twice", field)
	}
	add(b.fbb, v.off)
	b.added[field] = true
}

// EndBag closes the open bag and returns its offset.
func (b *Builder) EndBag() BagOffset {
	b.require(stateBag, "EndBag")
	off := fb.PropertyBagEnd(b.fbb)
	b.state = stateIdle
	return BagOffset{off: off}
}

// Finish writes the root offset (and, by default, the ORTM identifier) and
// returns the finished buffer. The returned slice aliases the Builder's memory
// and is valid until Reset.
//
// Recognized options: WithSizePrefix and WithoutIdentifier.
func (b *Builder) Finish(root BagOffset, opts ...Option) []byte {
	b.require(stateIdle, "Finish")
	if root.off == 0 {
		b.misuse("zero root offset")
	}
	cfg := newConfig(opts)
	switch {
	case cfg.identifier && cfg.sizePrefix:
		fb.FinishSizePrefixedPropertyBagBuffer(b.fbb, root.off)
	case cfg.identifier:
		fb.FinishPropertyBagBuffer(b.fbb, root.off)
	case cfg.sizePrefix:
		b.fbb.FinishSizePrefixed(root.off)
	default:
		b.fbb.Finish(root.off)
	}
	b.state = stateFinished
	return b.fbb.FinishedBytes()
}

func vectorName(f Field) string {
	switch f {
	case FieldInts:
		return "Ints"
	case FieldFloats:
		return "Floats"
	default:
		return "Strings"
	}
}
