package rhi

// DescriptorCategory is a descriptor heap. Each category has its own slot
// space.
type DescriptorCategory uint8

const (
	CategorySampledImage DescriptorCategory = iota
	CategoryStorageBuffer
	CategorySampler

	categoryCount
)

var categories = [categoryCount]DescriptorCategory{CategorySampledImage, CategoryStorageBuffer, CategorySampler}

func (c DescriptorCategory) String() string {
	switch c {
	case CategorySampledImage:
		return "sampled_image"
	case CategoryStorageBuffer:
		return "storage_buffer"
	case CategorySampler:
		return "sampler"
	}
	return "unknown"
}

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

const (
	BufferUsageCopySrc BufferUsage = 1 << iota
	BufferUsageCopyDst
	BufferUsageIndex
	BufferUsageVertex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageIndirect
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

const (
	TextureFormatRGBA8Unorm TextureFormat = iota + 1
	TextureFormatRGBA8UnormSRGB
	TextureFormatBGRA8Unorm
	TextureFormatR32Float
	TextureFormatRGBA16Float
	TextureFormatDepth32Float
)

// FilterMode selects texel filtering for a sampler.
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// AddressMode selects how a sampler treats coordinates outside [0,1].
type AddressMode uint8

const (
	AddressRepeat AddressMode = iota
	AddressClampToEdge
	AddressMirrorRepeat
)

type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

type TextureDesc struct {
	Label     string
	Width     uint32
	Height    uint32
	MipLevels uint32
	Format    TextureFormat
}

type SamplerDesc struct {
	Label       string
	MinFilter   FilterMode
	MagFilter   FilterMode
	AddressMode AddressMode
}

// Descriptor is what a backend writes into a heap slot. Exactly one of the
// description pointers is set, matching Category.
type Descriptor struct {
	Category DescriptorCategory
	Buffer   *BufferDesc
	Texture  *TextureDesc
	Sampler  *SamplerDesc
}

// Label returns the label of whichever resource the descriptor describes.
func (d Descriptor) Label() string {
	switch {
	case d.Buffer != nil:
		return d.Buffer.Label
	case d.Texture != nil:
		return d.Texture.Label
	case d.Sampler != nil:
		return d.Sampler.Label
	}
	return ""
}

// DescriptorWriter is implemented by a GPU backend. The table calls it when
// a slot is bound to a resource and again when the slot is retired, always
// from the goroutine that owns the table.
type DescriptorWriter interface {
	WriteDescriptor(cat DescriptorCategory, slot uint32, d Descriptor) error
	ClearDescriptor(cat DescriptorCategory, slot uint32) error
}

// NullWriter discards every descriptor update.
type NullWriter struct{}

func (NullWriter) WriteDescriptor(DescriptorCategory, uint32, Descriptor) error { return nil }

func (NullWriter) ClearDescriptor(DescriptorCategory, uint32) error { return nil }

var _ DescriptorWriter = NullWriter{}
