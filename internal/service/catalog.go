package service

import "slices"

var (
	voices = []string{
		"neutral",
		"male",
		"female",
		"young_male",
		"young_female",
		"elderly_male",
		"elderly_female",
	}

	emotions = []string{
		"professional",
		"excited",
		"happy",
		"calm",
		"sad",
		"angry",
		"surprised",
		"confused",
		"friendly",
		"neutral",
	}
)

// Voices returns the advertised voice names.
func Voices() []string {
	return slices.Clone(voices)
}

// Emotions returns the advertised emotion names.
func Emotions() []string {
	return slices.Clone(emotions)
}
