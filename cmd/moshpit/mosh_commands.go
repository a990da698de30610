package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"moshpit/internal/selection"
)

func newMoshCommand(ctx *commandContext) *cobra.Command {
	moshCmd := &cobra.Command{
		Use:   "mosh",
		Short: "Apply and remove mosh effects",
	}

	moshCmd.AddCommand(newMoshWipeCommand(ctx))
	moshCmd.AddCommand(newMoshPersistentCommand(ctx))
	moshCmd.AddCommand(newMoshRemoveCommand(ctx))

	return moshCmd
}

func newMoshWipeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe SESSION TIME",
		Short: "Replace the keyframe at TIME with a single-frame mosh",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseTimecode(args[1])
			if err != nil {
				return err
			}

			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			// Wipe moshes work on a selected clip with the playhead parked
			// on one of its keyframes.
			if sess.SelectionMode() != selection.ClipMode {
				sess.ToggleSelectionMode()
			}
			result := sess.Seek(at, true)
			var target string
			for _, clip := range sess.Clips() {
				if clip.Contains(result.Time) {
					target = clip.ID
					break
				}
			}
			if target == "" {
				return fmt.Errorf("no clip at %s", formatTimecode(result.Time))
			}
			sess.SelectClip(target, false)

			mod, err := sess.InsertWipeMosh()
			if err != nil {
				return err
			}
			if err := saveAndClose(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted wipe mosh %s at %s (clip %s, frame %d)\n",
				shortID(mod.ID), formatTimecode(result.Time), shortID(target), mod.Targets[0].FrameIndex)
			return nil
		},
	}
}

func newMoshPersistentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "persistent SESSION START END",
		Short: "Mosh every keyframe in a timeline range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTimecode(args[1])
			if err != nil {
				return err
			}
			end, err := parseTimecode(args[2])
			if err != nil {
				return err
			}

			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			if sess.SelectionMode() != selection.TimeMode {
				sess.ToggleSelectionMode()
			}
			sess.ClearSelection()
			sel := sess.SelectTimeRange(start, end)
			if sel.State != selection.StateTimeSelected {
				return fmt.Errorf("range %s - %s selects nothing", formatTimecode(start), formatTimecode(end))
			}

			mod, err := sess.InsertPersistentMosh()
			if err != nil {
				return err
			}
			if err := saveAndClose(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted persistent mosh %s over %s - %s (%d keyframes)\n",
				shortID(mod.ID), formatTimecode(mod.Start), formatTimecode(mod.End), len(mod.Targets))
			return nil
		},
	}
}

func newMoshRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove SESSION MOSH",
		Short: "Remove a mosh effect",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := ctx.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			ref := strings.TrimSpace(args[1])
			var id string
			for _, mod := range sess.Modifiers() {
				if mod.ID == ref || strings.HasPrefix(mod.ID, ref) {
					if id != "" {
						return fmt.Errorf("mosh ID %q is ambiguous", ref)
					}
					id = mod.ID
				}
			}
			if id == "" {
				return fmt.Errorf("no mosh matches %q", ref)
			}

			if err := sess.RemoveModifier(id); err != nil {
				return err
			}
			if err := saveAndClose(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed mosh %s\n", shortID(id))
			return nil
		},
	}
}
