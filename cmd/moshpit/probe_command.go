package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"moshpit/internal/frameindex"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE",
		Short: "Inspect a source file and its keyframe layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := ctx.provider()
			if err != nil {
				return err
			}

			info, err := provider.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			frames, err := provider.ScanFrames(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			index, err := frameindex.New(frames)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Frames", strconv.Itoa(info.FrameCount)},
				{"Frame rate", fmt.Sprintf("%.3f fps", info.FrameRate)},
				{"Duration", formatTimecode(info.Duration)},
				{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
				{"Keyframes", strconv.Itoa(index.IFrameCount())},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Property", "Value"}, rows))
			return nil
		},
	}
}
