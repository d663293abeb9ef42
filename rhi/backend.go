// Package rhi tracks GPU resources for a bindless renderer. Every resource is
// identified by a generational handle whose index doubles as its slot in the
// backend's descriptor heap, so a stale handle can never address a slot that
// has since been given to another resource.
package rhi

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/DangerosoDavo/slotengine/handle"
)

// Backend selects the graphics API a table is sized for.
type Backend uint8

const (
	// BackendNull has no device behind it. It is used by tools and tests.
	BackendNull Backend = iota
	BackendVulkan
	BackendD3D12
)

// ErrUnknownBackend is returned by ParseBackend for unrecognised names.
var ErrUnknownBackend = errors.New("rhi: unknown backend")

// ParseBackend accepts the names returned by Backend.String, ignoring case.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "null", "":
		return BackendNull, nil
	case "vulkan", "vk":
		return BackendVulkan, nil
	case "d3d12", "dx12":
		return BackendD3D12, nil
	}
	return BackendNull, errors.Wrapf(ErrUnknownBackend, "%q", name)
}

func (b Backend) String() string {
	switch b {
	case BackendNull:
		return "null"
	case BackendVulkan:
		return "vulkan"
	case BackendD3D12:
		return "d3d12"
	}
	return "unknown"
}

// HeapLimits is the number of descriptor slots per category.
type HeapLimits struct {
	SampledImages  uint32
	StorageBuffers uint32
	Samplers       uint32
}

// HeapLimits returns the default descriptor heap sizes for the backend.
func (b Backend) HeapLimits() HeapLimits {
	switch b {
	case BackendVulkan:
		// Conservative descriptor indexing limits that hold on every desktop driver.
		return HeapLimits{SampledImages: 16384, StorageBuffers: 16384, Samplers: 2048}
	case BackendD3D12:
		// Resource binding tier 3.
		return HeapLimits{SampledImages: 1_000_000, StorageBuffers: 1_000_000, Samplers: 2048}
	default:
		return HeapLimits{SampledImages: 1024, StorageBuffers: 1024, Samplers: 256}
	}
}

// Capacity returns the limit for one category.
func (l HeapLimits) Capacity(cat DescriptorCategory) uint32 {
	switch cat {
	case CategorySampledImage:
		return l.SampledImages
	case CategoryStorageBuffer:
		return l.StorageBuffers
	case CategorySampler:
		return l.Samplers
	}
	return 0
}

// Merge returns l with every zero field taken from defaults.
func (l HeapLimits) Merge(defaults HeapLimits) HeapLimits {
	if l.SampledImages == 0 {
		l.SampledImages = defaults.SampledImages
	}
	if l.StorageBuffers == 0 {
		l.StorageBuffers = defaults.StorageBuffers
	}
	if l.Samplers == 0 {
		l.Samplers = defaults.Samplers
	}
	return l
}

// Validate checks every capacity against the handle index space. The last
// index is reserved for the nil handle and must never become a slot.
func (l HeapLimits) Validate() error {
	for _, cat := range categories {
		n := l.Capacity(cat)
		if n == 0 {
			return errors.Errorf("rhi: %s heap has no slots", cat)
		}
		if n > handle.MaxSlots {
			return errors.Errorf("rhi: %s heap of %d slots exceeds the handle limit of %d", cat, n, handle.MaxSlots)
		}
	}
	return nil
}
