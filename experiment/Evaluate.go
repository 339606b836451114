package experiment

import (
	"github.com/samuelfneumann/gocar/agent"
	env "github.com/samuelfneumann/gocar/environment"
)

// Evaluate scores a policy on an environment by running it for a number
// of full episodes and returning the undiscounted return earned in
// each. The policy is put in evaluation mode for the duration of the
// run. The environment is Reset between episodes, so no state leaks
// from one episode to the next.
func Evaluate(e env.Environment, policy agent.Policy,
	episodes int) []float64 {
	policy.Eval()
	defer policy.Train()

	returns := make([]float64, episodes)
	for i := range returns {
		step := e.Reset()

		var total float64
		for !step.Last() {
			step, _ = e.Step(policy.SelectAction(step))
			total += step.Reward
		}
		returns[i] = total
	}
	return returns
}
