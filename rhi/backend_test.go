package rhi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DangerosoDavo/slotengine/handle"
)

func TestParseBackend(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Backend
	}{
		{"null", BackendNull},
		{"", BackendNull},
		{"Vulkan", BackendVulkan},
		{"vk", BackendVulkan},
		{" D3D12 ", BackendD3D12},
		{"dx12", BackendD3D12},
	} {
		got, err := ParseBackend(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseBackend("metal")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestBackendStringRoundTrips(t *testing.T) {
	for _, b := range []Backend{BackendNull, BackendVulkan, BackendD3D12} {
		got, err := ParseBackend(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	assert.Equal(t, "unknown", Backend(99).String())
}

func TestDefaultHeapLimitsFitHandleSpace(t *testing.T) {
	for _, b := range []Backend{BackendNull, BackendVulkan, BackendD3D12} {
		assert.NoError(t, b.HeapLimits().Validate(), b.String())
	}
}

func TestHeapLimitsValidate(t *testing.T) {
	limits := HeapLimits{SampledImages: handle.MaxSlots, StorageBuffers: 1, Samplers: 1}
	assert.NoError(t, limits.Validate())

	limits.SampledImages = handle.MaxSlots + 1
	assert.Error(t, limits.Validate(), "the nil index must not be a slot")

	limits.SampledImages = 0
	assert.Error(t, limits.Validate())
}

func TestHeapLimitsMerge(t *testing.T) {
	merged := HeapLimits{Samplers: 16}.Merge(BackendVulkan.HeapLimits())
	assert.Equal(t, HeapLimits{SampledImages: 16384, StorageBuffers: 16384, Samplers: 16}, merged)
}
