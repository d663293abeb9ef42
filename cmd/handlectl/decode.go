package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/DangerosoDavo/slotengine/handle"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <value>...",
	Short: "Split raw handle values into index and generation",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, arg := range args {
			h, err := parseHandle(arg)
			if err != nil {
				return err
			}
			if h.IsNil() {
				fmt.Fprintf(out, "%s\t0x%08x\tnil\n", arg, uint32(h))
				continue
			}
			fmt.Fprintf(out, "%s\t0x%08x\tindex=%d generation=%d\n",
				arg, uint32(h), h.Index(), h.Generation())
		}
		return nil
	},
}

// parseHandle accepts decimal, 0x-prefixed hex, or "index:generation".
func parseHandle(s string) (handle.Handle, error) {
	var index, gen uint64
	if _, err := fmt.Sscanf(s, "%d:%d", &index, &gen); err == nil {
		if index > uint64(handle.MaxIndex) || gen >= uint64(handle.GenerationLimit) {
			return handle.Invalid, errors.Errorf("%q: index or generation out of range", s)
		}
		return handle.New(uint32(index), uint16(gen)), nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return handle.Invalid, errors.Wrapf(err, "parse handle %q", s)
	}
	return handle.Handle(v), nil
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
