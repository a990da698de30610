package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var atFlag string
	var qualityFlag int

	cmd := &cobra.Command{
		Use:   "preview SESSION",
		Short: "Render the preview frames for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			if atFlag != "" {
				at, err := parseTimecode(atFlag)
				if err != nil {
					return err
				}
				sess.Seek(at, false)
			}
			if qualityFlag != 0 {
				if err := sess.SetQuality(qualityFlag); err != nil {
					return err
				}
			}

			handle, err := sess.RequestPreview(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			interactive := stdoutIsTerminal()
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-cmd.Context().Done():
					handle.Cancel()
					<-handle.Done()
					return cmd.Context().Err()
				case <-ticker.C:
					if interactive {
						produced, total := handle.Progress()
						fmt.Fprintf(out, "\rDecoding %d/%d frames", produced, total)
					}
				case <-handle.Done():
					produced, total := handle.Progress()
					if interactive {
						fmt.Fprint(out, "\r")
					}
					stats := sess.CacheStats()
					fmt.Fprintf(out, "Rendered %d/%d frames at quality %d%% (%s, cache %d frames / %.1f MiB)\n",
						produced, total, handle.Quality(), handle.Status(),
						stats.Entries, float64(stats.TotalBytes)/(1<<20))
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&atFlag, "at", "", "Playhead position; nearest frames decode first")
	cmd.Flags().IntVar(&qualityFlag, "quality", 0, "Preview quality: 25, 50, 75 or 100")
	return cmd
}
