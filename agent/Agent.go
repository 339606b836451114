// Package agent defines behaviour policies for acting in environments
package agent

import (
	"github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
)

// Policy represents a policy for selecting actions in an environment.
//
// Policies may behave differently in evaluation and training modes,
// e.g. by dropping exploration during evaluation. Policies that do not
// distinguish the two implement Eval() and Train() as no-ops.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()  // Set policy to evaluation mode
	Train() // Set policy to training mode
}
