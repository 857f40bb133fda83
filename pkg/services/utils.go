package services

import (
	"math"
	"math/rand/v2"
)

// Shuffle devuelve una copia mezclada (Fisher-Yates); no modifica items
func Shuffle[T any](items []T) []T {
	return shuffleWith(items, rand.IntN)
}

func shuffleWith[T any](items []T, intn func(int) int) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// CalculateScore porcentaje de aciertos redondeado (0.5 hacia arriba).
// Sin preguntas el puntaje es 0.
func CalculateScore(totalQuestions, correctAnswers int) int {
	if totalQuestions <= 0 {
		return 0
	}
	return int(math.Floor(float64(correctAnswers)/float64(totalQuestions)*100 + 0.5))
}
