package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ayusman/ghostcoach/internal/coach"
	"github.com/ayusman/ghostcoach/internal/config"
	"github.com/ayusman/ghostcoach/internal/cue"
	"github.com/ayusman/ghostcoach/internal/hold"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/overlay"
	"github.com/ayusman/ghostcoach/internal/reference"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type replayOptions struct {
	Targets     []string
	SnapshotDir string
	Every       int
	Width       int
	Height      int
}

var replayOpts replayOptions

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Coach a recorded landmark stream against references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(replayOpts.Targets) == 0 {
			return fmt.Errorf("at least one --target is required")
		}

		targets := make([]reference.Sequence, 0, len(replayOpts.Targets))
		for _, name := range replayOpts.Targets {
			seq, err := st.References().Load(name)
			if err != nil {
				return fmt.Errorf("reference %q: %w", name, err)
			}
			log.Printf("Loaded %s reference %q (%d frames)", seq.Kind, seq.Name, len(seq.Frames))
			targets = append(targets, seq)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		frames, err := landmark.NewReader(f).ReadAll()
		if err != nil {
			return err
		}

		if replayOpts.SnapshotDir != "" {
			if err := os.MkdirAll(replayOpts.SnapshotDir, 0755); err != nil {
				return fmt.Errorf("failed to create snapshot directory: %w", err)
			}
		}

		summaries, err := replay(cmd.Context(), frames, targets, cfg, replayOpts, os.Stderr)
		if err != nil {
			return err
		}
		return printSummaries(cmd.OutOrStdout(), summaries)
	},
}

func init() {
	replayCmd.Flags().StringSliceVarP(&replayOpts.Targets, "target", "t", nil, "reference to coach against (repeatable)")
	replayCmd.Flags().StringVar(&replayOpts.SnapshotDir, "snapshots", "", "write overlay images into this directory")
	replayCmd.Flags().IntVar(&replayOpts.Every, "every", 30, "snapshot every Nth tracked frame")
	replayCmd.Flags().IntVar(&replayOpts.Width, "width", 640, "snapshot width")
	replayCmd.Flags().IntVar(&replayOpts.Height, "height", 480, "snapshot height")
	rootCmd.AddCommand(replayCmd)
}

// summary aggregates the coaching outputs of one subject over a replay.
type summary struct {
	Subject  landmark.Subject
	Frames   int
	Tracked  int
	Holds    int
	Best     float64
	Template string
	Cue      string
	Pace     float64
	PaceCue  string

	total    float64
	paced    bool
	observed []landmark.Set
	stamps   []int64
}

// Mean returns the average final score over tracked frames.
func (s *summary) Mean() float64 {
	if s.Tracked == 0 {
		return 0
	}
	return s.total / float64(s.Tracked)
}

func (s *summary) add(out coach.Output, observed landmark.Set, ts int64) {
	s.Frames++
	s.Cue = out.Cue
	if !out.Tracked {
		return
	}
	s.Tracked++
	s.total += out.Final
	s.Best = max(s.Best, out.Final)
	s.Template = out.Template
	s.observed = append(s.observed, observed)
	s.stamps = append(s.stamps, ts)
	if out.Event == hold.Done {
		s.Holds++
	}
}

// replay runs frames through a coach and summarizes every subject. Progress
// is drawn to progress.
func replay(ctx context.Context, frames []landmark.Frame, targets []reference.Sequence, cfg config.Config, opts replayOptions, progress io.Writer) ([]*summary, error) {
	c, err := coach.New(cfg, targets...)
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(len(frames),
		progressbar.OptionSetDescription("Replaying"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
	)

	bySubject := make(map[landmark.Subject]*summary)
	var order []*summary

	for _, f := range frames {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		outs, err := c.Process(f)
		if err != nil {
			return nil, err
		}

		for _, out := range outs {
			sum, ok := bySubject[out.Subject]
			if !ok {
				sum = &summary{Subject: out.Subject}
				bySubject[out.Subject] = sum
				order = append(order, sum)
			}

			observed, _ := f.Set(out.Subject)
			sum.add(out, observed, f.TimestampMs)

			if out.Event == hold.Done {
				// Re-arm the hold for the next attempt.
				if s, ok := c.Session(out.Subject); ok {
					s.Advance()
				}
			}

			if opts.SnapshotDir != "" && out.Tracked && opts.Every > 0 && sum.Tracked%opts.Every == 0 {
				if err := snapshotOutput(opts, f, out, observed); err != nil {
					return nil, err
				}
			}
		}
		bar.Add(1)
	}
	bar.Finish()

	byName := make(map[string]reference.Sequence, len(targets))
	for _, t := range targets {
		byName[t.Name] = t
	}
	for _, sum := range order {
		ref, ok := byName[sum.Template]
		if !ok || ref.IsStatic() || len(sum.observed) < 2 {
			continue
		}
		profile, err := cfg.Profile(sum.Subject.Kind)
		if err != nil {
			return nil, err
		}
		sum.Pace = pace(sum.observed, sum.stamps, ref, profile.Score.MinConfidence)
		sum.PaceCue = cue.PaceCue(sum.Pace)
		sum.paced = true
	}

	return order, nil
}

// pace compares the timing of a performance with an animated reference.
// Both are normalized so only the motion is compared, not where it happened.
func pace(observed []landmark.Set, stamps []int64, ref reference.Sequence, minConf float64) float64 {
	performed := reference.Sequence{
		Name:   "performance",
		Kind:   ref.Kind,
		FPS:    estimateFPS(stamps),
		Frames: observed,
	}.Retime(ref.FPS)

	origin, scaleRef := normalizationJoints(ref.Kind, true)
	norm := func(sets []landmark.Set) []landmark.Set {
		out := make([]landmark.Set, len(sets))
		for i, s := range sets {
			out[i] = landmark.Normalize(s, origin, scaleRef)
		}
		return out
	}

	return reference.Align(norm(performed.Frames), norm(ref.Frames), minConf).Pace()
}

func snapshotOutput(opts replayOptions, f landmark.Frame, out coach.Output, observed landmark.Set) error {
	name := fmt.Sprintf("%06d-%s.png", f.Index, strings.ReplaceAll(out.Subject.String(), ":", "-"))
	frame := overlay.Frame{
		Kind:     out.Subject.Kind,
		Ghost:    out.Ghost,
		Observed: observed,
		Caption:  []string{fmt.Sprintf("%s  %.1f", out.Template, out.Final), out.Cue},
	}
	return overlay.Snapshot(filepath.Join(opts.SnapshotDir, name), frame, opts.Width, opts.Height, overlay.DefaultStyle())
}

func printSummaries(w io.Writer, summaries []*summary) error {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No coached subject appeared in the recording.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tTEMPLATE\tTRACKED\tMEAN\tBEST\tHOLDS\tPACE\tLAST CUE")
	fmt.Fprintln(tw, "-------\t--------\t-------\t----\t----\t-----\t----\t--------")
	for _, s := range summaries {
		paceText := "-"
		switch {
		case s.PaceCue != "":
			paceText = s.PaceCue
		case s.paced:
			paceText = "on pace"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.1f\t%.1f\t%d\t%s\t%s\n",
			s.Subject, s.Template, s.Tracked, s.Frames, s.Mean(), s.Best, s.Holds, paceText, s.Cue)
	}
	return tw.Flush()
}
