package water

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/seaoverlay/internal/engine/schedule"
	"github.com/Faultbox/seaoverlay/internal/logger"
)

// ErrHold is returned by Start when the pulse hold is not positive. A zero
// hold releases the pulse before any step can consume it.
var ErrHold = errors.New("water: pulse hold must be positive")

// Disturber is the part of a Simulation the trigger drives.
type Disturber interface {
	Disturb(Disturbance) error
	Disturbance() Disturbance
}

// TriggerState is the trigger's sweep phase and pulse bookkeeping.
type TriggerState struct {
	Phase  float64
	Active bool
	Saved  Disturbance // disturbance in effect before the pulse
}

// Trigger fires periodic pulses that sweep diagonally across the surface,
// from the (+x, -y) corner to the (-x, +y) corner. Each pulse holds for a
// short time and then parks the disturbance again, restoring the radius and
// strength that were set before it. Pulses never overlap.
type Trigger struct {
	sim    Disturber
	sched  *schedule.Scheduler
	cfg    TriggerConfig
	halfW  float64
	halfH  float64
	state  TriggerState
	ticker *schedule.Task
	hold   *schedule.Task
	log    *zap.Logger
}

// NewTrigger creates a stopped trigger for a surface of width × height.
func NewTrigger(sim Disturber, sched *schedule.Scheduler, width, height float64, cfg TriggerConfig, log *zap.Logger) *Trigger {
	if log == nil {
		log = logger.Named("wave")
	}
	return &Trigger{
		sim:   sim,
		sched: sched,
		cfg:   cfg,
		halfW: width / 2,
		halfH: height / 2,
		log:   log,
	}
}

// Start schedules Fire every Interval. Starting a running trigger does nothing.
func (t *Trigger) Start() error {
	if t.ticker.Active() {
		return nil
	}
	if t.cfg.Hold <= 0 {
		return ErrHold
	}
	task, err := t.sched.Every(t.cfg.Interval, t.Fire)
	if err != nil {
		return err
	}
	t.ticker = task
	t.log.Debug("auto wave started", zap.Duration("interval", t.cfg.Interval))
	return nil
}

// Running reports whether pulses are scheduled.
func (t *Trigger) Running() bool {
	return t.ticker.Active()
}

// Fire starts one pulse unless one is already active.
func (t *Trigger) Fire() {
	if t.state.Active {
		return
	}

	t.state.Phase += t.cfg.PhaseStep
	if t.state.Phase > 1 {
		t.state.Phase = 0
	}
	p := t.state.Phase
	x := t.halfW + (-t.halfW-t.halfW)*p
	y := -t.halfH + (t.halfH+t.halfH)*p

	saved := t.sim.Disturbance()
	pulse := Disturbance{X: x, Y: y, Radius: t.cfg.PulseRadius, Strength: t.cfg.PulseStrength}
	if err := t.sim.Disturb(pulse); err != nil {
		t.log.Warn("wave pulse rejected", zap.Error(err))
		return
	}
	t.state.Saved = saved
	t.state.Active = true

	task, err := t.sched.After(t.cfg.Hold, t.release)
	if err != nil {
		t.log.Warn("cannot schedule pulse release", zap.Error(err))
		t.release()
		return
	}
	t.hold = task
}

// release parks the disturbance with the saved radius and strength.
func (t *Trigger) release() {
	t.hold = nil
	d := NoDisturbance(t.state.Saved.Radius, t.state.Saved.Strength)
	if err := t.sim.Disturb(d); err != nil {
		t.log.Debug("pulse release", zap.Error(err))
	}
	t.state.Active = false
}

// Stop cancels future pulses and any pending release. An active pulse is
// released immediately.
func (t *Trigger) Stop() {
	t.ticker.Cancel()
	t.ticker = nil
	if t.hold != nil {
		t.hold.Cancel()
		t.release()
	}
}

// State returns a copy of the trigger state.
func (t *Trigger) State() TriggerState {
	return t.state
}
