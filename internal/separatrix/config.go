package separatrix

import "fmt"

const (
	DefaultSeptumX        = 3.5e-2
	DefaultTurns          = 1000
	DefaultTolerance      = 1e-6
	DefaultStableStart    = 0.0
	DefaultUnstableStart  = 0.03
	DefaultMaxIterations  = 64
	DefaultMaskFraction   = 0.2
	DefaultSlopeHalfWidth = 3
	DefaultSampleMax      = 2.5e-2
	DefaultSampleCount    = 25
)

// Config holds every numeric threshold of a characterization run.
type Config struct {
	SeptumX        float64 `yaml:"septum_x" json:"septum_x"`
	Turns          int     `yaml:"turns" json:"turns"`
	Tolerance      float64 `yaml:"tolerance" json:"tolerance"`
	StableStart    float64 `yaml:"stable_start" json:"stable_start"`
	UnstableStart  float64 `yaml:"unstable_start" json:"unstable_start"`
	MaxIterations  int     `yaml:"max_iterations" json:"max_iterations"`
	MaskFraction   float64 `yaml:"mask_fraction" json:"mask_fraction"`
	SlopeHalfWidth int     `yaml:"slope_half_width" json:"slope_half_width"`
	SampleMax      float64 `yaml:"sample_max" json:"sample_max"`
	SampleCount    int     `yaml:"sample_count" json:"sample_count"`
	// VerifyBracket tracks UnstableStart once before bisecting.
	VerifyBracket bool `yaml:"verify_bracket" json:"verify_bracket"`
}

func DefaultConfig() Config {
	return Config{
		SeptumX:        DefaultSeptumX,
		Turns:          DefaultTurns,
		Tolerance:      DefaultTolerance,
		StableStart:    DefaultStableStart,
		UnstableStart:  DefaultUnstableStart,
		MaxIterations:  DefaultMaxIterations,
		MaskFraction:   DefaultMaskFraction,
		SlopeHalfWidth: DefaultSlopeHalfWidth,
		SampleMax:      DefaultSampleMax,
		SampleCount:    DefaultSampleCount,
		VerifyBracket:  true,
	}
}

func (c Config) Validate() error {
	if c.Turns <= 2*c.SlopeHalfWidth {
		return fmt.Errorf("%w: turns %d must exceed slope window %d", ErrInvalidConfig, c.Turns, 2*c.SlopeHalfWidth)
	}
	if c.SlopeHalfWidth < 1 {
		return fmt.Errorf("%w: slope half width must be at least 1, got %d", ErrInvalidConfig, c.SlopeHalfWidth)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidConfig, c.Tolerance)
	}
	if c.UnstableStart <= c.StableStart {
		return fmt.Errorf("%w: unstable start %g must exceed stable start %g", ErrInvalidConfig, c.UnstableStart, c.StableStart)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.MaskFraction <= 0 {
		return fmt.Errorf("%w: mask fraction must be positive, got %g", ErrInvalidConfig, c.MaskFraction)
	}
	if c.SampleCount < 2 || c.SampleMax <= 0 {
		return fmt.Errorf("%w: sampler needs at least 2 offsets up to a positive maximum", ErrInvalidConfig)
	}
	return nil
}
