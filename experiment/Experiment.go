// Package experiment implements functionality for running episodes of
// an environment under a policy and recording the data they generate
package experiment

import (
	ts "github.com/samuelfneumann/gocar/timestep"

	"github.com/samuelfneumann/gocar/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments track environment TimeSteps, caching the data each
// Tracker selects in RAM; the Save() function then takes all cached
// data and saves it to disk, usually after the experiment has been run.
// The Run() method runs episodes until the maximum timestep limit is
// reached. The RunEpisode() function runs a single episode.
//
// Experiments send each TimeStep to their Trackers using the Tracker's
// Track() method; the Tracker determines which data it caches and
// saves. New Trackers can be registered with an Experiment through the
// constructor or through an Experiment's Register() function.
type Experiment interface {
	Run()
	RunEpisode() bool // Returns whether or not the time limit was reached

	// Tracks current timestep by sending it to Trackers
	track(ts.TimeStep)

	// Save all tracked data to disk
	Save()

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment
	Register(t tracker.Tracker)
}
