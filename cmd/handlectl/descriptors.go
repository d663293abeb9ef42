package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DangerosoDavo/slotengine/rhi"
)

var (
	descriptorFrames   int
	descriptorPerFrame int
	descriptorLifetime int
)

var descriptorsCmd = &cobra.Command{
	Use:   "descriptors",
	Short: "Stream resources through a bindless descriptor table and report heap usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		backend, err := rhi.ParseBackend(cfg.RHI.Backend)
		if err != nil {
			return err
		}
		table, err := rhi.NewResourceTable(rhi.TableConfig{
			Backend:        backend,
			FramesInFlight: cfg.RHI.FramesInFlight,
			Heaps:          cfg.HeapLimits(backend),
		}, nil, rhi.WithTableLogger(logger))
		if err != nil {
			return err
		}

		if err := streamResources(table, rand.New(rand.NewSource(cfg.Bench.Seed))); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backend %s, %d frames\n", table.Backend(), table.Frame())
		for _, s := range table.Stats() {
			fmt.Fprintf(out, "%-15s live=%-6d retiring=%-6d capacity=%-8d high_water=%d\n",
				s.Category, s.Live, s.Retiring, s.Capacity, s.Table.Capacity)
		}
		logger.Debug("descriptor stream complete", zap.Uint64("frames", table.Frame()))
		return nil
	},
}

// streamResources creates a batch of textures and buffers every frame and
// releases each after descriptorLifetime frames, the way a streaming level
// loader would.
func streamResources(table *rhi.ResourceTable, rng *rand.Rand) error {
	type live struct {
		texture rhi.TextureHandle
		buffer  rhi.BufferHandle
		expires int
	}
	var (
		resident []live
		errs     error
	)
	sampler, err := table.CreateSampler(rhi.SamplerDesc{Label: "linear", MinFilter: rhi.FilterLinear, MagFilter: rhi.FilterLinear})
	if err != nil {
		return err
	}
	for frame := 0; frame < descriptorFrames; frame++ {
		for i := 0; i < descriptorPerFrame; i++ {
			size := uint32(64 << rng.Intn(5))
			tex, err := table.CreateTexture(rhi.TextureDesc{
				Label: fmt.Sprintf("tex-%d-%d", frame, i), Width: size, Height: size,
				Format: rhi.TextureFormatRGBA8UnormSRGB,
			})
			if err != nil {
				return err
			}
			buf, err := table.CreateBuffer(rhi.BufferDesc{
				Label: fmt.Sprintf("buf-%d-%d", frame, i), Size: uint64(size) * uint64(size) * 4,
				Usage: rhi.BufferUsageStorage | rhi.BufferUsageCopyDst,
			})
			if err != nil {
				return err
			}
			resident = append(resident, live{texture: tex, buffer: buf, expires: frame + descriptorLifetime})
		}

		kept := resident[:0]
		for _, r := range resident {
			if r.expires > frame {
				kept = append(kept, r)
				continue
			}
			errs = multierr.Append(errs, table.ReleaseTexture(r.texture))
			errs = multierr.Append(errs, table.ReleaseBuffer(r.buffer))
		}
		resident = kept
		errs = multierr.Append(errs, table.AdvanceFrame())
		if errs != nil {
			return errs
		}
	}
	for _, r := range resident {
		errs = multierr.Append(errs, table.ReleaseTexture(r.texture))
		errs = multierr.Append(errs, table.ReleaseBuffer(r.buffer))
	}
	errs = multierr.Append(errs, table.ReleaseSampler(sampler))
	return multierr.Append(errs, table.Drain())
}

func init() {
	flags := descriptorsCmd.Flags()
	flags.IntVar(&descriptorFrames, "frames", 240, "frames to simulate")
	flags.IntVar(&descriptorPerFrame, "per-frame", 8, "textures and buffers created each frame")
	flags.IntVar(&descriptorLifetime, "lifetime", 30, "frames a resource stays resident")
	rootCmd.AddCommand(descriptorsCmd)
}
