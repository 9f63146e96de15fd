// Package config holds the per-domain tuning of the coaching pipeline and
// loads it from a file and GHOSTCOACH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/ghostcoach/internal/align"
	"github.com/ayusman/ghostcoach/internal/hold"
	"github.com/ayusman/ghostcoach/internal/landmark"
	"github.com/ayusman/ghostcoach/internal/score"
	"github.com/ayusman/ghostcoach/internal/shape"
	"github.com/ayusman/ghostcoach/internal/stabilize"
)

// DefaultMinConfidence is the landmark confidence below which a joint is
// ignored.
const DefaultMinConfidence = 0.5

// Config is the whole application configuration.
type Config struct {
	// Database is the reference library path. Empty leaves the choice to
	// the caller.
	Database string  `mapstructure:"database"`
	Hand     Profile `mapstructure:"hand"`
	Body     Profile `mapstructure:"body"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Hand: DefaultHandProfile(),
		Body: DefaultBodyProfile(),
	}
}

// Profile returns the profile for kind.
func (c Config) Profile(kind landmark.Kind) (Profile, error) {
	switch kind {
	case landmark.Hand:
		p := c.Hand
		p.Kind = landmark.Hand
		return p, nil
	case landmark.Body:
		p := c.Body
		p.Kind = landmark.Body
		return p, nil
	}
	return Profile{}, fmt.Errorf("%w: %d", landmark.ErrUnknownKind, int(kind))
}

// Validate checks both profiles.
func (c Config) Validate() error {
	hand, _ := c.Profile(landmark.Hand)
	if err := hand.Validate(); err != nil {
		return fmt.Errorf("hand: %w", err)
	}
	body, _ := c.Profile(landmark.Body)
	if err := body.Validate(); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	return nil
}

// Profile is the tuning of one subject kind.
type Profile struct {
	Kind landmark.Kind `mapstructure:"-"`

	Align     AlignConfig     `mapstructure:"align"`
	Stabilize StabilizeConfig `mapstructure:"stabilize"`
	Score     ScoreConfig     `mapstructure:"score"`
	Hold      HoldConfig      `mapstructure:"hold"`
	Shape     ShapeConfig     `mapstructure:"shape"`
}

// AlignConfig configures the rigid aligner.
type AlignConfig struct {
	Anchors        []int   `mapstructure:"anchors"`
	EnableRotation bool    `mapstructure:"enable_rotation"`
	MaxRotationDeg float64 `mapstructure:"max_rotation_deg"`
	MinConfidence  float64 `mapstructure:"min_confidence"`
	Procrustes     bool    `mapstructure:"procrustes"`
}

// StabilizeConfig configures transform smoothing and template hysteresis.
type StabilizeConfig struct {
	Alpha           float64 `mapstructure:"alpha"`
	MaxTranslation  float64 `mapstructure:"max_translation"`
	MaxScaleChange  float64 `mapstructure:"max_scale_change"`
	MaxRotationDeg  float64 `mapstructure:"max_rotation_deg"`
	SwitchThreshold float64 `mapstructure:"switch_threshold"`
}

// JointWeight overrides the importance of one joint.
type JointWeight struct {
	Joint  int     `mapstructure:"joint"`
	Weight float64 `mapstructure:"weight"`
}

// ScoreConfig configures the similarity scorer. Weights are applied on top
// of the built-in table of the kind.
type ScoreConfig struct {
	Weights       []JointWeight `mapstructure:"weights"`
	Exclude       []int         `mapstructure:"exclude"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	Sensitivity   float64       `mapstructure:"sensitivity"`
	Tolerance     float64       `mapstructure:"tolerance"`
	EMAAlpha      float64       `mapstructure:"ema_alpha"`
	TopN          int           `mapstructure:"top_n"`
	AngleWeight   float64       `mapstructure:"angle_weight"`
}

// HoldConfig configures hold-to-complete.
type HoldConfig struct {
	Threshold float64       `mapstructure:"threshold"`
	Duration  time.Duration `mapstructure:"duration"`
}

// ShapeConfig enables finger-shape scoring for hand domains.
type ShapeConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ExtendedDeg    float64 `mapstructure:"extended_deg"`
	BentDeg        float64 `mapstructure:"bent_deg"`
	ShapeWeight    float64 `mapstructure:"shape_weight"`
	GeometryWeight float64 `mapstructure:"geometry_weight"`
}

func defaultProfile(kind landmark.Kind) Profile {
	anchors, _ := kind.Anchors()
	classifier := shape.DefaultClassifier()
	blend := shape.DefaultBlend()
	smooth := stabilize.DefaultSmoothOptions()
	scoreOpts := score.DefaultOptions(kind)
	holdCfg := hold.DefaultConfig()

	return Profile{
		Kind: kind,
		Align: AlignConfig{
			Anchors:       anchors,
			MinConfidence: DefaultMinConfidence,
		},
		Stabilize: StabilizeConfig{
			Alpha:           smooth.Alpha,
			MaxTranslation:  smooth.MaxTranslation,
			MaxScaleChange:  smooth.MaxScaleChange,
			MaxRotationDeg:  smooth.MaxRotationDeg,
			SwitchThreshold: stabilize.DefaultSwitchThreshold,
		},
		Score: ScoreConfig{
			MinConfidence: scoreOpts.MinConfidence,
			Sensitivity:   scoreOpts.Sensitivity,
			Tolerance:     scoreOpts.Tolerance,
			EMAAlpha:      scoreOpts.EMAAlpha,
			TopN:          scoreOpts.TopN,
		},
		Hold: HoldConfig{
			Threshold: holdCfg.Threshold,
			Duration:  holdCfg.Duration,
		},
		Shape: ShapeConfig{
			ExtendedDeg:    classifier.ExtendedDeg,
			BentDeg:        classifier.BentDeg,
			ShapeWeight:    blend.ShapeWeight,
			GeometryWeight: blend.GeometryWeight,
		},
	}
}

// DefaultHandProfile returns the hand defaults: rotation on, finger-shape
// scoring on.
func DefaultHandProfile() Profile {
	p := defaultProfile(landmark.Hand)
	p.Align.EnableRotation = true
	p.Shape.Enabled = true
	return p
}

// DefaultBodyProfile returns the body defaults: no rotation, geometry only.
func DefaultBodyProfile() Profile {
	return defaultProfile(landmark.Body)
}

// Validate checks every option by building the components it configures.
func (p Profile) Validate() error {
	n, err := p.Kind.Cardinality()
	if err != nil {
		return err
	}
	if _, err := align.New(p.AlignOptions(), n); err != nil {
		return err
	}
	if _, err := score.New(p.ScoreOptions()); err != nil {
		return err
	}
	if err := p.HoldConfig().Validate(); err != nil {
		return err
	}
	if p.Stabilize.SwitchThreshold <= 0 || p.Stabilize.SwitchThreshold >= 1 {
		return fmt.Errorf("config: switch threshold %v not in (0,1)", p.Stabilize.SwitchThreshold)
	}
	if p.Stabilize.Alpha <= 0 || p.Stabilize.Alpha > 1 {
		return fmt.Errorf("config: smoothing alpha %v not in (0,1]", p.Stabilize.Alpha)
	}
	if p.Shape.Enabled {
		if p.Kind != landmark.Hand {
			return errors.New("config: shape scoring needs a hand profile")
		}
		if p.Shape.BentDeg >= p.Shape.ExtendedDeg {
			return fmt.Errorf("config: bent angle %v must be below extended angle %v", p.Shape.BentDeg, p.Shape.ExtendedDeg)
		}
		if err := p.Blend().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AlignOptions returns the aligner options.
func (p Profile) AlignOptions() align.Options {
	mode := align.ModeAnchor
	if p.Align.Procrustes {
		mode = align.ModeProcrustes
	}
	return align.Options{
		Anchors:        append([]int(nil), p.Align.Anchors...),
		EnableRotation: p.Align.EnableRotation,
		MaxRotation:    p.Align.MaxRotationDeg * math.Pi / 180,
		MinConfidence:  p.Align.MinConfidence,
		Mode:           mode,
	}
}

// StabilizeOptions returns the stabilizer options.
func (p Profile) StabilizeOptions() stabilize.Options {
	return stabilize.Options{
		Smooth: stabilize.SmoothOptions{
			Alpha:          p.Stabilize.Alpha,
			MaxTranslation: p.Stabilize.MaxTranslation,
			MaxScaleChange: p.Stabilize.MaxScaleChange,
			MaxRotationDeg: p.Stabilize.MaxRotationDeg,
		},
		SwitchThreshold: p.Stabilize.SwitchThreshold,
		MinConfidence:   p.Align.MinConfidence,
	}
}

// ScoreOptions returns the scorer options: the kind's built-in weights with
// the configured overrides applied.
func (p Profile) ScoreOptions() score.Options {
	opts := score.DefaultOptions(p.Kind)
	for _, w := range p.Score.Weights {
		if opts.Weights == nil {
			opts.Weights = make(map[int]float64)
		}
		opts.Weights[w.Joint] = w.Weight
	}
	opts.Exclude = append([]int(nil), p.Score.Exclude...)
	opts.MinConfidence = p.Score.MinConfidence
	opts.Sensitivity = p.Score.Sensitivity
	opts.Tolerance = p.Score.Tolerance
	opts.EMAAlpha = p.Score.EMAAlpha
	opts.TopN = p.Score.TopN
	opts.AngleWeight = p.Score.AngleWeight
	return opts
}

// HoldConfig returns the hold settings.
func (p Profile) HoldConfig() hold.Config {
	return hold.Config{Threshold: p.Hold.Threshold, Duration: p.Hold.Duration}
}

// Classifier returns the finger-shape classifier.
func (p Profile) Classifier() shape.Classifier {
	return shape.Classifier{
		ExtendedDeg:   p.Shape.ExtendedDeg,
		BentDeg:       p.Shape.BentDeg,
		MinConfidence: p.Align.MinConfidence,
	}
}

// Blend returns the shape/geometry score blend.
func (p Profile) Blend() shape.Blend {
	return shape.Blend{ShapeWeight: p.Shape.ShapeWeight, GeometryWeight: p.Shape.GeometryWeight}
}
