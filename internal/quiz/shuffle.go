package quiz

import "math/rand"

// Shuffle returns a permuted copy of the category's questions with every
// question's options independently permuted. The input category is never
// modified; correct answers survive the shuffle because they are matched by
// value, not by position. Passing a seeded rng makes the result reproducible.
func Shuffle(cat Category, rng *rand.Rand) []Question {
	questions := make([]Question, len(cat.Questions))
	copy(questions, cat.Questions)
	rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	for i := range questions {
		options := make([]string, len(questions[i].Options))
		copy(options, questions[i].Options)
		rng.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})
		questions[i].Options = options
	}
	return questions
}
