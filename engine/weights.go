package engine

// Weights tunes every contribution the engine adds to a direction's score.
// Penalties are positive numbers that get subtracted.
type Weights struct {
	BorderPenalty        float64 // stepping off the board
	CloseBorderPenalty   float64 // stepping onto an edge row or column
	BodyCollisionPenalty float64 // stepping onto any body segment, per snake
	NeckPenalty          float64 // reversing onto our own neck
	HeadOnPenalty        float64 // head-on we would lose or tie; also the bonus when we would win
	TrappingPenalty      float64 // own body two steps away, per cell

	FoodValue        float64
	HungerThreshold  int32
	HungryFoodWeight float64
	// FedFoodWeight scales food seeking when health is above HungerThreshold.
	// Zero ignores food; a negative value steers away from it.
	FedFoodWeight float64

	MobilityBonus     float64
	CrampedMultiplier float64

	// TailSlack is how many of our trailing segments the grid treats as free.
	TailSlack int
}

func DefaultWeights() Weights {
	return Weights{
		BorderPenalty:        1000,
		CloseBorderPenalty:   2,
		BodyCollisionPenalty: 100,
		NeckPenalty:          1000,
		HeadOnPenalty:        100,
		TrappingPenalty:      2,

		FoodValue:        10,
		HungerThreshold:  30,
		HungryFoodWeight: 2,
		FedFoodWeight:    1,

		MobilityBonus:     20,
		CrampedMultiplier: 2,

		TailSlack: 5,
	}
}
