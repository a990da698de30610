package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"moshpit/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var pathFlag string

	cmd := &cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(pathFlag)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"paths.session_dir", cfg.SessionDir},
				{"paths.log_dir", cfg.LogDir},
				{"paths.watch_dirs", strings.Join(cfg.WatchDirs, ", ")},
				{"logging.level", cfg.Logging.Level},
				{"logging.format", cfg.Logging.Format},
				{"media.ffprobe_binary", cfg.Media.FFprobeBinary},
				{"media.ffmpeg_binary", cfg.Media.FFmpegBinary},
				{"preview.workers", strconv.Itoa(cfg.Preview.Workers)},
				{"preview.default_quality", strconv.Itoa(cfg.Preview.DefaultQuality)},
				{"preview.cache_max_mib", strconv.Itoa(cfg.Preview.CacheMaxMiB)},
				{"snap.grid", yesNo(cfg.Snap.Grid)},
				{"snap.clip_edge", yesNo(cfg.Snap.ClipEdge)},
				{"snap.iframe", yesNo(cfg.Snap.IFrame)},
				{"snap.grid_unit_millis", strconv.Itoa(cfg.Snap.GridUnitMillis)},
				{"snap.radius_millis", strconv.Itoa(cfg.Snap.RadiusMillis)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "Configuration file to read")
	return cmd
}
