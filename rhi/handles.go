package rhi

import "github.com/DangerosoDavo/slotengine/handle"

// BufferHandle identifies a storage buffer. Its slot indexes the storage
// buffer heap.
type BufferHandle handle.Handle

// TextureHandle identifies a sampled image.
type TextureHandle handle.Handle

// SamplerHandle identifies a sampler.
type SamplerHandle handle.Handle

const (
	NilBuffer  = BufferHandle(handle.Invalid)
	NilTexture = TextureHandle(handle.Invalid)
	NilSampler = SamplerHandle(handle.Invalid)
)

// Slot is the descriptor heap index shaders use to reach the buffer.
func (h BufferHandle) Slot() uint32 { return handle.Handle(h).Index() }

func (h BufferHandle) IsNil() bool { return handle.Handle(h).IsNil() }

func (h BufferHandle) String() string { return "Buffer" + handle.Handle(h).String()[len("Handle"):] }

func (h TextureHandle) Slot() uint32 { return handle.Handle(h).Index() }

func (h TextureHandle) IsNil() bool { return handle.Handle(h).IsNil() }

func (h TextureHandle) String() string { return "Texture" + handle.Handle(h).String()[len("Handle"):] }

func (h SamplerHandle) Slot() uint32 { return handle.Handle(h).Index() }

func (h SamplerHandle) IsNil() bool { return handle.Handle(h).IsNil() }

func (h SamplerHandle) String() string { return "Sampler" + handle.Handle(h).String()[len("Handle"):] }
