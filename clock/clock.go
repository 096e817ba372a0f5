package clock

import (
	"fmt"
	"time"
)

// Config configures a Clock. Epoch is the wall-clock instant corresponding to
// step 0; StepDuration is the fixed length of one step.
type Config struct {
	Epoch        time.Time
	StepDuration time.Duration
}

// DefaultConfig returns a clock starting now with one-minute steps.
func DefaultConfig() Config {
	return Config{Epoch: time.Now().UTC(), StepDuration: time.Minute}
}

// Clock converts between wall-clock timestamps and step numbers. Both
// directions are pure functions of (epoch, step duration); a Clock is
// immutable after construction and safe for concurrent use.
type Clock struct {
	epoch   time.Time
	stepDur time.Duration
	nowFunc func() time.Time
}

// New constructs a Clock from cfg. The step duration must be positive.
func New(cfg Config) (*Clock, error) {
	if cfg.StepDuration <= 0 {
		return nil, fmt.Errorf("step duration must be positive, got %v", cfg.StepDuration)
	}
	epoch := cfg.Epoch
	if epoch.IsZero() {
		epoch = time.Now().UTC()
	}
	return &Clock{epoch: epoch.UTC(), stepDur: cfg.StepDuration, nowFunc: time.Now}, nil
}

// NewWithNow constructs a Clock whose notion of the current instant comes
// from nowFunc. Tests use this to pin "now".
func NewWithNow(cfg Config, nowFunc func() time.Time) (*Clock, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	c.nowFunc = nowFunc
	return c, nil
}

// Epoch returns the wall-clock instant of step 0.
func (c *Clock) Epoch() time.Time { return c.epoch }

// StepDuration returns the fixed length of one step.
func (c *Clock) StepDuration() time.Duration { return c.stepDur }

// StepForTimestamp returns the step containing ts. The mapping is monotonic:
// ts1 < ts2 implies StepForTimestamp(ts1) <= StepForTimestamp(ts2). Instants
// before the epoch clamp to step 0.
func (c *Clock) StepForTimestamp(ts time.Time) int64 {
	if ts.Before(c.epoch) {
		return 0
	}
	return int64(ts.Sub(c.epoch) / c.stepDur)
}

// TimestampForStep returns the start instant of step n.
func (c *Clock) TimestampForStep(n int64) time.Time {
	return c.epoch.Add(time.Duration(n) * c.stepDur)
}

// Now returns the current wall-clock instant in UTC.
func (c *Clock) Now() time.Time { return c.nowFunc().UTC() }

// CurrentStep returns the step containing the current instant.
func (c *Clock) CurrentStep() int64 { return c.StepForTimestamp(c.Now()) }
