package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"moshpit/internal/relink"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch SESSION",
		Short: "Watch configured directories and relink offline clips as sources reappear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(cfg.WatchDirs) == 0 {
				return fmt.Errorf("no watch directories configured; set paths.watch_dirs")
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			missing := sess.MissingClips()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %d directories for %d offline clips. Press Ctrl-C to stop.\n",
				len(cfg.WatchDirs), len(missing))

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher := relink.New(cfg.WatchDirs, sess, logger)
			if err := watcher.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			watcher.Stop()

			return saveAndClose(cmd.Context(), sess)
		},
	}
}
