package main

import (
	"fmt"
	"time"

	"github.com/ayusman/ghostcoach/internal/overlay"
	"github.com/spf13/cobra"
)

var (
	snapshotOut    string
	snapshotAt     time.Duration
	snapshotWidth  int
	snapshotHeight int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot NAME",
	Short: "Render a reference pose to an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := st.References().Load(args[0])
		if err != nil {
			return fmt.Errorf("reference %q: %w", args[0], err)
		}

		out := snapshotOut
		if out == "" {
			out = seq.Name + ".png"
		}

		idx := seq.FrameIndex(snapshotAt)
		frame := overlay.Frame{
			Kind:    seq.Kind,
			Ghost:   seq.Frames[idx],
			Caption: []string{fmt.Sprintf("%s  frame %d/%d", seq.Name, idx+1, len(seq.Frames))},
		}
		if err := overlay.Snapshot(out, frame, snapshotWidth, snapshotHeight, overlay.DefaultStyle()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "output image (default: NAME.png)")
	snapshotCmd.Flags().DurationVar(&snapshotAt, "at", 0, "playback position of animated references")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", 480, "image width")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", 480, "image height")
	rootCmd.AddCommand(snapshotCmd)
}
