package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "cuetrack",
		Short:        "Play dubbed timelines and lay out their subtitles",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	cues := &cobra.Command{
		Use:   "cues <project>",
		Short: "Print allocated cues, or the visible subtitles at --at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCues(cmd, args[0])
		},
	}
	cues.Flags().Float64("at", -1, "Timeline position in seconds")

	export := &cobra.Command{
		Use:   "export <project>",
		Short: "Write subtitles.ass and cues.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0])
		},
	}
	export.Flags().String("out", "out", "Output directory")
	export.Flags().Bool("probe", false, "Probe missing track durations with ffprobe")

	play := &cobra.Command{
		Use:   "play <project>",
		Short: "Play a project in real time, printing each subtitle change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, args[0])
		},
	}
	play.Flags().Float64("from", 0, "Start position in seconds")
	play.Flags().Duration("for", 0, "Stop after this long (0 plays to the end)")
	play.Flags().Bool("watch", false, "Reload the project when the file changes")
	play.Flags().Bool("probe", false, "Probe media before tracks become ready")

	snapshot := &cobra.Command{
		Use:   "snapshot <project>",
		Short: "Render the frame at --at to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, args[0])
		},
	}
	snapshot.Flags().Float64("at", 0, "Timeline position in seconds")
	snapshot.Flags().String("out", "frame.png", "Output PNG path")

	root.AddCommand(cues, export, play, snapshot)
	return root
}
