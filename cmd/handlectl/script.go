package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DangerosoDavo/slotengine/handle"
	"github.com/DangerosoDavo/slotengine/internal/scripting"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file.lua>...",
	Short: "Run Lua scenarios against a fresh allocator and sparse set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		engine := scripting.NewEngine(logger,
			handle.WithCapacity(cfg.ECS.InitialCapacity),
			handle.WithMaxSlots(cfg.EntityLimit()))
		defer engine.Close()

		for _, path := range args {
			if err := engine.DoFile(path); err != nil {
				logger.Error("script failed", zap.String("file", path), zap.Error(err))
				return err
			}
		}
		stats, setLen := engine.Stats()
		logger.Info("scripts complete",
			zap.Int("scripts", len(args)),
			zap.Int("live", stats.Live),
			zap.Int("free", stats.Free),
			zap.Int("capacity", stats.Capacity),
			zap.Int("set_len", setLen),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}
