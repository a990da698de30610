package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var positionFlag string

	cmd := &cobra.Command{
		Use:   "import SESSION FILE",
		Short: "Add a source file to a session timeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position := time.Duration(0)
			if positionFlag != "" {
				var err error
				position, err = parseTimecode(positionFlag)
				if err != nil {
					return err
				}
			}
			source, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}

			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			clip, err := sess.ImportClip(cmd.Context(), source, position)
			if err != nil {
				return err
			}
			if err := saveAndClose(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as clip %s at %s (%s long)\n",
				filepath.Base(source), shortID(clip.ID), formatTimecode(clip.TrackPosition), formatTimecode(clip.Duration()))
			return nil
		},
	}

	cmd.Flags().StringVar(&positionFlag, "position", "", "Timeline position for the clip (default 0s)")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status SESSION",
		Short: "Show a session's clips, moshes and settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()

			clips := sess.Clips()
			if len(clips) == 0 {
				fmt.Fprintln(out, "Timeline is empty.")
			} else {
				rows := make([][]string, 0, len(clips))
				for i, clip := range clips {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						shortID(clip.ID),
						filepath.Base(clip.Source),
						formatTimecode(clip.TrackPosition),
						formatTimecode(clip.Duration()),
						yesNo(clip.Missing()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Clip", "Source", "Position", "Duration", "Offline"},
					rows, 0, 4))
			}

			mods := sess.Modifiers()
			if len(mods) > 0 {
				rows := make([][]string, 0, len(mods))
				for _, mod := range mods {
					span := "-"
					if mod.End > mod.Start {
						span = fmt.Sprintf("%s - %s", formatTimecode(mod.Start), formatTimecode(mod.End))
					}
					rows = append(rows, []string{
						shortID(mod.ID),
						string(mod.Kind),
						span,
						strconv.Itoa(len(mod.Targets)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Mosh", "Kind", "Range", "Keyframes"},
					rows, 3))
			}

			fmt.Fprintf(out, "Playhead %s, %s mode, quality %d%%\n",
				formatTimecode(sess.Playhead()), sess.SelectionMode(), sess.Quality())
			return nil
		},
	}
}

func newTrimCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trim SESSION CLIP IN OUT",
		Short: "Set a clip's in and out points in source time",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseTimecode(args[2])
			if err != nil {
				return err
			}
			out, err := parseTimecode(args[3])
			if err != nil {
				return err
			}

			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			clip, err := findClip(sess, args[1])
			if err != nil {
				return err
			}
			if err := sess.TrimClip(clip.ID, in, out); err != nil {
				return err
			}
			if err := saveAndClose(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trimmed clip %s to %s - %s\n",
				shortID(clip.ID), formatTimecode(in), formatTimecode(out))
			return nil
		},
	}
}

func newRemoveClipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-clip SESSION CLIP",
		Short: "Remove a clip and its moshes from the timeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			clip, err := findClip(sess, args[1])
			if err != nil {
				return err
			}
			if err := sess.RemoveClip(clip.ID); err != nil {
				return err
			}
			if err := saveAndClose(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed clip %s\n", shortID(clip.ID))
			return nil
		},
	}
}

func newRelinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "relink SESSION CLIP FILE",
		Short: "Point an offline clip at a new source file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := filepath.Abs(args[2])
			if err != nil {
				return err
			}

			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			clip, err := findClip(sess, args[1])
			if err != nil {
				return err
			}
			if err := sess.RelinkClip(cmd.Context(), clip.ID, source); err != nil {
				return err
			}
			if err := saveAndClose(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Relinked clip %s to %s\n", shortID(clip.ID), source)
			return nil
		},
	}
}
