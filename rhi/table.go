package rhi

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DangerosoDavo/slotengine/handle"
	"github.com/DangerosoDavo/slotengine/sparse"
)

var (
	// ErrHeapFull is returned when a descriptor heap has no free slot.
	ErrHeapFull = errors.New("rhi: descriptor heap full")
	// ErrStaleHandle is returned when releasing a handle that is not live.
	ErrStaleHandle = errors.New("rhi: stale resource handle")
)

// TableConfig sizes a ResourceTable.
type TableConfig struct {
	Backend Backend
	// FramesInFlight is how many AdvanceFrame calls a released slot waits
	// before it is cleared and reused. Zero behaves like one.
	FramesInFlight int
	// Heaps overrides the backend's default limits; zero fields keep them.
	Heaps HeapLimits
}

// TableOption configures a ResourceTable.
type TableOption func(*ResourceTable)

// WithTableLogger sets the logger for heap events. A nil logger is ignored.
func WithTableLogger(logger *zap.Logger) TableOption {
	return func(t *ResourceTable) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// ResourceTable hands out descriptor slots for buffers, textures and samplers.
// A released slot stays reserved until the GPU can no longer be reading it,
// which is FramesInFlight frames later.
//
// ResourceTable is not safe for concurrent use. It belongs to the goroutine
// that records and submits frames.
type ResourceTable struct {
	backend        Backend
	limits         HeapLimits
	framesInFlight uint64
	writer         DescriptorWriter
	logger         *zap.Logger
	frame          uint64
	heaps          [categoryCount]*descriptorHeap
}

type descriptorHeap struct {
	category DescriptorCategory
	alloc    *handle.Allocator
	live     sparse.Set[Descriptor]
	retiring []retiringSlot
}

type retiringSlot struct {
	h        handle.Handle
	retireAt uint64
}

// HeapStats describes one descriptor heap.
type HeapStats struct {
	Category DescriptorCategory
	Live     int
	Retiring int
	Capacity uint32
	Table    handle.Stats
}

// NewResourceTable builds a table for cfg. A nil writer discards descriptor
// updates.
func NewResourceTable(cfg TableConfig, writer DescriptorWriter, opts ...TableOption) (*ResourceTable, error) {
	if cfg.FramesInFlight < 0 {
		return nil, errors.Errorf("rhi: frames in flight must not be negative, got %d", cfg.FramesInFlight)
	}
	limits := cfg.Heaps.Merge(cfg.Backend.HeapLimits())
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if writer == nil {
		writer = NullWriter{}
	}

	t := &ResourceTable{
		backend:        cfg.Backend,
		limits:         limits,
		framesInFlight: uint64(cfg.FramesInFlight),
		writer:         writer,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, cat := range categories {
		t.heaps[cat] = &descriptorHeap{
			category: cat,
			alloc:    handle.NewAllocator(handle.WithMaxSlots(limits.Capacity(cat))),
		}
	}
	t.logger.Debug("resource table created",
		zap.Stringer("backend", cfg.Backend),
		zap.Uint32("sampled_images", limits.SampledImages),
		zap.Uint32("storage_buffers", limits.StorageBuffers),
		zap.Uint32("samplers", limits.Samplers),
		zap.Int("frames_in_flight", cfg.FramesInFlight),
	)
	return t, nil
}

// Backend returns the backend the table was built for.
func (t *ResourceTable) Backend() Backend { return t.backend }

// Limits returns the heap capacities in effect.
func (t *ResourceTable) Limits() HeapLimits { return t.limits }

// Frame returns the number of AdvanceFrame calls so far.
func (t *ResourceTable) Frame() uint64 { return t.frame }

// CreateBuffer reserves a storage buffer slot and writes its descriptor.
func (t *ResourceTable) CreateBuffer(desc BufferDesc) (BufferHandle, error) {
	h, err := t.create(Descriptor{Category: CategoryStorageBuffer, Buffer: &desc})
	return BufferHandle(h), err
}

// CreateTexture reserves a sampled image slot and writes its descriptor.
// A zero MipLevels is stored as 1.
func (t *ResourceTable) CreateTexture(desc TextureDesc) (TextureHandle, error) {
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	h, err := t.create(Descriptor{Category: CategorySampledImage, Texture: &desc})
	return TextureHandle(h), err
}

// CreateSampler reserves a sampler slot and writes its descriptor.
func (t *ResourceTable) CreateSampler(desc SamplerDesc) (SamplerHandle, error) {
	h, err := t.create(Descriptor{Category: CategorySampler, Sampler: &desc})
	return SamplerHandle(h), err
}

// Buffer returns the description of a live buffer.
func (t *ResourceTable) Buffer(h BufferHandle) (BufferDesc, bool) {
	d, ok := t.heaps[CategoryStorageBuffer].live.Get(handle.Handle(h))
	if !ok {
		return BufferDesc{}, false
	}
	return *d.Buffer, true
}

// Texture returns the description of a live texture.
func (t *ResourceTable) Texture(h TextureHandle) (TextureDesc, bool) {
	d, ok := t.heaps[CategorySampledImage].live.Get(handle.Handle(h))
	if !ok {
		return TextureDesc{}, false
	}
	return *d.Texture, true
}

// Sampler returns the description of a live sampler.
func (t *ResourceTable) Sampler(h SamplerHandle) (SamplerDesc, bool) {
	d, ok := t.heaps[CategorySampler].live.Get(handle.Handle(h))
	if !ok {
		return SamplerDesc{}, false
	}
	return *d.Sampler, true
}

// BufferAlive reports whether h still names a live buffer.
func (t *ResourceTable) BufferAlive(h BufferHandle) bool {
	return t.heaps[CategoryStorageBuffer].live.Contains(handle.Handle(h))
}

// TextureAlive reports whether h still names a live texture.
func (t *ResourceTable) TextureAlive(h TextureHandle) bool {
	return t.heaps[CategorySampledImage].live.Contains(handle.Handle(h))
}

// SamplerAlive reports whether h still names a live sampler.
func (t *ResourceTable) SamplerAlive(h SamplerHandle) bool {
	return t.heaps[CategorySampler].live.Contains(handle.Handle(h))
}

// ReleaseBuffer stops the buffer resolving immediately. Its slot is recycled
// once FramesInFlight frames have passed.
func (t *ResourceTable) ReleaseBuffer(h BufferHandle) error {
	return t.release(CategoryStorageBuffer, handle.Handle(h))
}

// ReleaseTexture is ReleaseBuffer for textures.
func (t *ResourceTable) ReleaseTexture(h TextureHandle) error {
	return t.release(CategorySampledImage, handle.Handle(h))
}

// ReleaseSampler is ReleaseBuffer for samplers.
func (t *ResourceTable) ReleaseSampler(h SamplerHandle) error {
	return t.release(CategorySampler, handle.Handle(h))
}

// AdvanceFrame marks the end of a frame and recycles every slot whose
// retirement is due. Clearing continues past failures; the failures are
// returned together.
func (t *ResourceTable) AdvanceFrame() error {
	t.frame++
	var err error
	for _, heap := range t.heaps {
		err = multierr.Append(err, t.retire(heap, t.frame))
	}
	return err
}

// Drain recycles every retiring slot regardless of frame, for use once the
// device is idle.
func (t *ResourceTable) Drain() error {
	var err error
	for _, heap := range t.heaps {
		err = multierr.Append(err, t.retire(heap, ^uint64(0)))
	}
	return err
}

// Stats returns one entry per descriptor category.
func (t *ResourceTable) Stats() []HeapStats {
	out := make([]HeapStats, 0, len(t.heaps))
	for _, heap := range t.heaps {
		out = append(out, HeapStats{
			Category: heap.category,
			Live:     heap.live.Len(),
			Retiring: len(heap.retiring),
			Capacity: t.limits.Capacity(heap.category),
			Table:    heap.alloc.Stats(),
		})
	}
	return out
}

func (t *ResourceTable) create(d Descriptor) (handle.Handle, error) {
	heap := t.heaps[d.Category]
	h, err := heap.alloc.Create()
	if err != nil {
		if errors.Is(err, handle.ErrExhausted) {
			return handle.Invalid, errors.Wrapf(ErrHeapFull, "%s heap of %d slots", d.Category, t.limits.Capacity(d.Category))
		}
		return handle.Invalid, err
	}
	if err := t.writer.WriteDescriptor(d.Category, h.Index(), d); err != nil {
		// The slot was never published, so it can be reused at once.
		_ = heap.alloc.Destroy(h)
		return handle.Invalid, errors.Wrapf(err, "rhi: write %s descriptor %d", d.Category, h.Index())
	}
	heap.live.Insert(h, d)
	return h, nil
}

func (t *ResourceTable) release(cat DescriptorCategory, h handle.Handle) error {
	heap := t.heaps[cat]
	if !heap.live.Remove(h) {
		t.logger.Warn("release of stale resource handle rejected",
			zap.Stringer("category", cat), zap.Stringer("handle", h))
		return errors.Wrapf(ErrStaleHandle, "release %s %v", cat, h)
	}
	heap.retiring = append(heap.retiring, retiringSlot{h: h, retireAt: t.frame + t.framesInFlight})
	return nil
}

// retire recycles the slots due by frame. Slots are queued in release order,
// so the due ones form a prefix.
func (t *ResourceTable) retire(heap *descriptorHeap, frame uint64) error {
	var err error
	n := 0
	for _, slot := range heap.retiring {
		if slot.retireAt > frame {
			break
		}
		n++
		if clearErr := t.writer.ClearDescriptor(heap.category, slot.h.Index()); clearErr != nil {
			err = multierr.Append(err, errors.Wrapf(clearErr, "rhi: clear %s descriptor %d", heap.category, slot.h.Index()))
		}
		if destroyErr := heap.alloc.Destroy(slot.h); destroyErr != nil {
			err = multierr.Append(err, destroyErr)
		}
	}
	if n > 0 {
		remaining := copy(heap.retiring, heap.retiring[n:])
		clear(heap.retiring[remaining:])
		heap.retiring = heap.retiring[:remaining]
		t.logger.Debug("descriptor slots recycled",
			zap.Stringer("category", heap.category), zap.Int("slots", n), zap.Uint64("frame", t.frame))
	}
	return err
}
