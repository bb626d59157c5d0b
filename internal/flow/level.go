package flow

import (
	"math/rand"

	"lingodrill/internal/types"
)

var randFloat = rand.Float64

// SetRandFn overrides the randomness source for tests.
func SetRandFn(f func() float64) { randFloat = f }

func RestoreRand() { randFloat = rand.Float64 }

// Level walk for the next exercise: mostly stay put, sometimes stretch up,
// occasionally drop back. 75% +0, 10% +1, 5% +2, 10% -1, clamped to [A1,C2].
var levelSteps = []struct {
	step   int
	weight float64
}{
	{0, 0.75},
	{1, 0.10},
	{2, 0.05},
	{-1, 0.10},
}

// NextExerciseLevel picks the level for the next exercise around the user's
// current level.
func NextExerciseLevel(current types.LanguageLevel) types.LanguageLevel {
	r := randFloat()
	acc := 0.0
	step := 0
	for _, s := range levelSteps {
		acc += s.weight
		if r < acc {
			step = s.step
			break
		}
	}
	return (current + types.LanguageLevel(step)).Clamp()
}

// defaultTypeWeights is the uniform distribution used when the profile has no
// override.
var defaultTypeWeights = map[types.ExerciseType]float64{
	types.FillInTheBlank:     1,
	types.ChooseSentence:     1,
	types.ChooseAccent:       1,
	types.StoryComprehension: 1,
}

// nextExerciseType picks a type weighted by the profile's effective settings.
func nextExerciseType(weights map[types.ExerciseType]float64) types.ExerciseType {
	if len(weights) == 0 {
		weights = defaultTypeWeights
	}
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return types.FillInTheBlank
	}
	r := randFloat() * total
	// Iterate in a fixed order so equal rand values map to stable picks.
	for _, t := range []types.ExerciseType{
		types.FillInTheBlank, types.ChooseSentence,
		types.ChooseAccent, types.StoryComprehension,
	} {
		w := weights[t]
		if w <= 0 {
			continue
		}
		if r < w {
			return t
		}
		r -= w
	}
	return types.FillInTheBlank
}

func nextTopic() types.Topic {
	idx := int(randFloat() * float64(len(types.AllTopics)))
	if idx >= len(types.AllTopics) {
		idx = len(types.AllTopics) - 1
	}
	return types.AllTopics[idx]
}
