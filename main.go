package main

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/gocar/agent"
	"github.com/samuelfneumann/gocar/environment"
	"github.com/samuelfneumann/gocar/environment/box2d/poetcar"
	"github.com/samuelfneumann/gocar/experiment"
	"github.com/samuelfneumann/gocar/experiment/tracker"
)

func main() {
	var seed uint64 = 192382

	// Create the environment
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: poetcar.InitialX, Max: poetcar.InitialX},
		{Min: poetcar.InitialY, Max: poetcar.InitialY},
	}, seed)
	task := poetcar.NewDrive(s, poetcar.MaxEpisodeSteps)
	car, _ := poetcar.NewDiscrete(task, nil, 0.99, seed)

	// Random behaviour policy
	policy := agent.NewRandom(poetcar.MaxDiscreteAction+1, seed)

	// Run a number of episodes, tracking the return of each
	returns := tracker.NewReturn("returns.bin")
	lengths := tracker.NewEpisodeLength("lengths.bin")
	exp := experiment.NewOnline(car, policy, 50_000, returns, lengths)
	exp.Run()
	exp.Save()

	data := tracker.LoadData("returns.bin")
	var mean float64
	for _, r := range data {
		mean += r
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	fmt.Printf("Episodes: %v  |  Mean return: %.2f\n", len(data), mean)

	// Fork divergent rollouts from the live environment
	forks := []*poetcar.Discrete{
		car.Clone(seed + 1),
		car.Clone(seed + 2),
	}
	for i, fork := range forks {
		fork.Reset()
		score := experiment.Evaluate(fork, policy, 1)
		fmt.Printf("Fork %v return: %.2f\n", i, score[0])
	}
}
