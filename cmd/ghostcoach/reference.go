package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/reference"
	"github.com/ayusman/ghostcoach/internal/store"
	"github.com/spf13/cobra"
)

// defaultFPS is assumed for recordings whose timestamps do not advance.
const defaultFPS = 30

type importOptions struct {
	Kind      string
	Side      string
	FPS       float64
	Average   bool
	Normalize bool
}

var importOpts importOptions

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Manage the reference library",
}

var importCmd = &cobra.Command{
	Use:   "import NAME FILE",
	Short: "Import a reference from a JSON-lines landmark recording",
	Long: `Import a reference from a JSON-lines landmark recording.

By default every tracked frame becomes a frame of an animated reference.
With --average the frames are treated as takes of one static pose and
averaged; the takes are kept so the reference can be rebuilt.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := parseSubject(importOpts.Kind, importOpts.Side)
		if err != nil {
			return err
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		seq, samples, err := importSequence(f, args[0], subject, importOpts)
		if err != nil {
			return err
		}

		ref, err := st.References().Save(seq)
		if err != nil {
			return err
		}
		if importOpts.Average {
			if err := st.Samples().Replace(ref.ID, samples); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s reference %q: %d frame(s)", seq.Kind, seq.Name, len(seq.Frames))
		if importOpts.Average {
			fmt.Fprintf(cmd.OutOrStdout(), " averaged from %d take(s)", len(samples))
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the references in the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := st.References().List()
		if err != nil {
			return err
		}

		if len(refs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No references found. Run 'ghostcoach reference seed' to add the built-in ones.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tFRAMES\tFPS\tSAMPLES\tUPDATED")
		fmt.Fprintln(w, "----\t----\t------\t---\t-------\t-------")
		for _, r := range refs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%d\t%s\n", r.Name, r.Kind, r.Frames, r.FPS, r.Samples, r.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a reference and its samples",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := st.References().GetByName(args[0])
		if err != nil {
			return fmt.Errorf("reference %q: %w", args[0], err)
		}
		if err := st.References().Delete(ref.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted reference %q\n", ref.Name)
		return nil
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild NAME",
	Short: "Re-average a reference from its stored takes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := st.References().GetByName(args[0])
		if err != nil {
			return fmt.Errorf("reference %q: %w", args[0], err)
		}
		samples, err := st.Samples().GetByReferenceID(ref.ID)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return fmt.Errorf("reference %q has no stored takes", ref.Name)
		}

		sets := store.Sets(samples)
		origin, scaleRef := normalizationJoints(ref.Kind, importOpts.Normalize)
		pose, err := reference.Average(sets, origin, scaleRef)
		if err != nil {
			return err
		}
		if _, err := st.References().Save(reference.Static(ref.Name, ref.Kind, pose)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %q from %d take(s)\n", ref.Name, len(sets))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the built-in references to the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, seq := range builtinReferences() {
			if _, err := st.References().Save(seq); err != nil {
				return fmt.Errorf("failed to seed %q: %w", seq.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s reference %q\n", seq.Kind, seq.Name)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importOpts.Kind, "kind", "hand", "subject kind: hand or body")
	importCmd.Flags().StringVar(&importOpts.Side, "side", "right", "hand to read from the recording: left or right")
	importCmd.Flags().Float64Var(&importOpts.FPS, "fps", 0, "playback rate (default: derived from the timestamps)")
	importCmd.Flags().BoolVar(&importOpts.Average, "average", false, "average all frames into one static pose")
	importCmd.Flags().BoolVar(&importOpts.Normalize, "normalize", true, "normalize takes before averaging")
	rebuildCmd.Flags().BoolVar(&importOpts.Normalize, "normalize", true, "normalize takes before averaging")

	referenceCmd.AddCommand(importCmd, listCmd, deleteCmd, rebuildCmd, seedCmd)
	rootCmd.AddCommand(referenceCmd)
}

// parseSubject builds the subject to read from a recording. The side is
// ignored for bodies.
func parseSubject(kind, side string) (landmark.Subject, error) {
	k, err := landmark.ParseKind(kind)
	if err != nil {
		return landmark.Subject{}, err
	}
	if k == landmark.Body {
		return landmark.BodySubject(), nil
	}
	switch side {
	case "left":
		return landmark.HandSubject(landmark.Left), nil
	case "right":
		return landmark.HandSubject(landmark.Right), nil
	}
	return landmark.Subject{}, fmt.Errorf("unknown side %q", side)
}

// normalizationJoints returns the Average origin and scale joints for kind,
// or -1, -1 to average raw coordinates.
func normalizationJoints(kind landmark.Kind, normalize bool) (int, int) {
	if !normalize {
		return -1, -1
	}
	if kind == landmark.Body {
		return int(landmark.LeftShoulder), int(landmark.RightShoulder)
	}
	return int(landmark.Wrist), int(landmark.MiddleMCP)
}

// importSequence reads a recording and turns the frames where subject is
// tracked into a reference. With opts.Average it also returns the takes the
// static pose was averaged from.
func importSequence(r io.Reader, name string, subject landmark.Subject, opts importOptions) (reference.Sequence, []landmark.Set, error) {
	frames, err := landmark.NewReader(r).ReadAll()
	if err != nil {
		return reference.Sequence{}, nil, err
	}

	var sets []landmark.Set
	var stamps []int64
	for _, f := range frames {
		if s, ok := f.Set(subject); ok {
			sets = append(sets, s)
			stamps = append(stamps, f.TimestampMs)
		}
	}
	if len(sets) == 0 {
		return reference.Sequence{}, nil, errors.New("recording has no tracked frames for " + subject.String())
	}

	if opts.Average {
		origin, scaleRef := normalizationJoints(subject.Kind, opts.Normalize)
		pose, err := reference.Average(sets, origin, scaleRef)
		if err != nil {
			return reference.Sequence{}, nil, err
		}
		return reference.Static(name, subject.Kind, pose), sets, nil
	}

	if len(sets) == 1 {
		return reference.Static(name, subject.Kind, sets[0]), nil, nil
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = estimateFPS(stamps)
	}
	return reference.Sequence{Name: name, Kind: subject.Kind, FPS: fps, Frames: sets}, nil, nil
}

// estimateFPS derives the frame rate from millisecond timestamps.
func estimateFPS(stamps []int64) float64 {
	if len(stamps) < 2 {
		return defaultFPS
	}
	span := stamps[len(stamps)-1] - stamps[0]
	if span <= 0 {
		return defaultFPS
	}
	return float64(len(stamps)-1) * 1000 / float64(span)
}

// builtinReferences are the references added by the seed command.
func builtinReferences() []reference.Sequence {
	curl := make([]landmark.Set, 15)
	for i := range curl {
		c := float64(i) / float64(len(curl)-1)
		curl[i] = landmark.SyntheticHand([5]float64{0, c, c, 0, 0})
	}

	return []reference.Sequence{
		reference.Static("A", landmark.Hand, landmark.ThumbsUp()),
		reference.Static("V", landmark.Hand, landmark.Victory()),
		reference.Static("open-palm", landmark.Hand, landmark.OpenPalm()),
		reference.Static("fist", landmark.Hand, landmark.Fist()),
		{Name: "two-finger-curl", Kind: landmark.Hand, FPS: 15, Frames: curl},
		reference.Static("t-pose", landmark.Body, landmark.TPose()),
	}
}
