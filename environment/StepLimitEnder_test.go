package environment

import (
	"testing"

	"github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
)

func TestStepLimitEnd(t *testing.T) {
	ender := NewStepLimit(3)
	obs := mat.NewVecDense(1, nil)

	early := timestep.New(timestep.Mid, 0, 1, obs, 2)
	if ender.End(&early) {
		t.Error("step 2 should not end an episode limited to 3 steps")
	}
	if !early.Mid() {
		t.Error("End should not modify a continuing timestep")
	}

	last := timestep.New(timestep.Mid, 0, 1, obs, 3)
	if !ender.End(&last) {
		t.Error("step 3 should end an episode limited to 3 steps")
	}
	if !last.Last() {
		t.Error("an ended timestep should be marked Last")
	}
	if last.End != timestep.Timeout {
		t.Errorf("expected Timeout, got %v", last.End)
	}
}
