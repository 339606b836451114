package experiment

import (
	"github.com/samuelfneumann/gocar/agent"
	env "github.com/samuelfneumann/gocar/environment"
	"github.com/samuelfneumann/gocar/experiment/tracker"
	ts "github.com/samuelfneumann/gocar/timestep"
	"github.com/samuelfneumann/gocar/utils/progressbar"
)

// Online is an Experiment that runs a policy in an environment for a
// fixed number of timesteps, episode after episode
type Online struct {
	env.Environment
	agent.Policy
	maxSteps     uint
	currentSteps uint
	trackers     []tracker.Tracker
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given policy. The steps parameter determines how
// many timesteps the experiment is run for, and the t parameter is a
// slice of tracker.Tracker which determine what data is saved.
func NewOnline(e env.Environment, p agent.Policy, steps uint,
	t ...tracker.Tracker) *Online {
	return &Online{e, p, steps, 0, t}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment, returning
// whether or not the experiment's timestep limit has been reached
func (o *Online) RunEpisode() bool {
	step := o.Environment.Reset()
	o.track(step)

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action := o.Policy.SelectAction(step)
		step, _ = o.Environment.Step(action)

		// Cache the environment step in each Tracker
		o.track(step)
	}

	return o.currentSteps >= o.maxSteps
}

// Run runs the entire experiment for all timesteps, displaying progress
// on the terminal
func (o *Online) Run() {
	bar := progressbar.New(50, int(o.maxSteps))

	ended := false
	for !ended {
		before := o.currentSteps
		ended = o.RunEpisode()

		for i := before; i < o.currentSteps; i++ {
			bar.Increment()
		}
		bar.Display()
	}
	bar.Close()
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
