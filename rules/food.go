package rules

import (
	"math/rand"

	"github.com/finlayhlannon/Solo-snake/game"
)

// FoodSettings matches the common Battlesnake server knobs:
// - MinimumFood: ensure at least this many food items exist after each turn
// - FoodSpawnChance: percentage chance (0-100) to spawn one extra food each turn
type FoodSettings struct {
	MinimumFood     int
	FoodSpawnChance int
}

var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// NoFood disables spawning; useful for scripted tests.
var NoFood = FoodSettings{}

// SpawnFood applies the food settings to state in place. Food only lands on
// cells free of snakes and existing food. A nil rng spawns nothing extra and
// places the minimum food deterministically, starting at the lowest free cell.
func SpawnFood(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	spawnFood(state, rng, settings)
}

func spawnFood(state *game.GameState, rng *rand.Rand, settings FoodSettings) {
	if state == nil || state.Width <= 0 || state.Height <= 0 {
		return
	}

	toSpawn := settings.MinimumFood - len(state.Food)
	if toSpawn < 0 {
		toSpawn = 0
	}
	if rng != nil && settings.FoodSpawnChance > 0 && rng.Intn(100) < settings.FoodSpawnChance {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	taken := make(map[game.Point]struct{}, len(state.Food)+8*len(state.Snakes))
	for _, s := range state.Snakes {
		for _, p := range s.Body {
			taken[p] = struct{}{}
		}
	}
	for _, f := range state.Food {
		taken[f] = struct{}{}
	}

	capacity := int(state.Width*state.Height) - len(taken)
	if capacity < 0 {
		capacity = 0
	}
	free := make([]game.Point, 0, capacity)
	for y := int32(0); y < state.Height; y++ {
		for x := int32(0); x < state.Width; x++ {
			p := game.Point{X: x, Y: y}
			if _, ok := taken[p]; !ok {
				free = append(free, p)
			}
		}
	}

	for ; toSpawn > 0 && len(free) > 0; toSpawn-- {
		i := 0
		if rng != nil {
			i = rng.Intn(len(free))
		}
		state.Food = append(state.Food, free[i])
		free[i] = free[len(free)-1]
		free = free[:len(free)-1]
	}
}
