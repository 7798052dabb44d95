package water

import "fmt"

// SpeedMin and SpeedMax bound the propagation speed setting.
const (
	SpeedMin = 1
	SpeedMax = 6
)

// ErrSpeedRange is returned for a propagation speed outside [SpeedMin, SpeedMax].
var ErrSpeedRange = fmt.Errorf("propagation speed must be in [%d,%d]", SpeedMin, SpeedMax)

// Throttle decides on which host ticks a step runs. With threshold
// K = 7 - speed a step fires every K-th tick.
type Throttle struct {
	threshold int
	frame     int
}

// NewThrottle creates a throttle for the given propagation speed.
func NewThrottle(speed int) (*Throttle, error) {
	t := &Throttle{}
	if err := t.SetSpeed(speed); err != nil {
		return nil, err
	}
	return t, nil
}

// SetSpeed changes the propagation speed without resetting the tick count.
func (t *Throttle) SetSpeed(speed int) error {
	if speed < SpeedMin || speed > SpeedMax {
		return fmt.Errorf("%w: got %d", ErrSpeedRange, speed)
	}
	t.threshold = 7 - speed
	return nil
}

// Threshold returns K, the number of ticks per step.
func (t *Throttle) Threshold() int {
	return t.threshold
}

// Tick counts one host tick and reports whether a step is due.
func (t *Throttle) Tick() bool {
	t.frame++
	if t.frame >= t.threshold {
		t.frame = 0
		return true
	}
	return false
}
