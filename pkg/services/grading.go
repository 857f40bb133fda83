package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/backsoul/quizdeck/pkg/models"
)

type questionKey struct {
	question string
	image    string
}

// answerIndex busca la respuesta correcta por texto e imagen; si no se envía
// imagen gana la primera pregunta con ese texto.
type answerIndex struct {
	exact  map[questionKey]string
	byText map[string]string
}

func newAnswerIndex(quiz models.Quiz) answerIndex {
	idx := answerIndex{
		exact:  make(map[questionKey]string, len(quiz.Questions)),
		byText: make(map[string]string, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		key := questionKey{question: q.Question, image: q.Image}
		if _, ok := idx.exact[key]; !ok {
			idx.exact[key] = q.Answer
		}
		if _, ok := idx.byText[q.Question]; !ok {
			idx.byText[q.Question] = q.Answer
		}
	}
	return idx
}

func (idx answerIndex) lookup(question, image string) (string, bool) {
	if image != "" {
		answer, ok := idx.exact[questionKey{question: question, image: image}]
		return answer, ok
	}
	answer, ok := idx.byText[question]
	return answer, ok
}

func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// AnswersMatch compara respuestas ignorando mayúsculas y espacios sobrantes
func AnswersMatch(given, correct string) bool {
	return strings.EqualFold(normalizeAnswer(given), normalizeAnswer(correct))
}

// GradeAnswers corrige las respuestas de un intento. Con TimeLimit > 0 una
// respuesta que tardó más que el límite cuenta como incorrecta.
func GradeAnswers(name string, quiz models.Quiz, answers []models.SubmittedAnswer, settings models.QuizSettings) (models.QuizResult, error) {
	idx := newAnswerIndex(quiz)

	result := models.QuizResult{
		ID:             uuid.NewString(),
		Quiz:           name,
		TotalQuestions: len(answers),
		Answers:        make([]models.AnswerRecord, 0, len(answers)),
	}

	for _, submitted := range answers {
		correct, ok := idx.lookup(submitted.Question, submitted.Image)
		if !ok {
			return models.QuizResult{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, submitted.Question)
		}

		isCorrect := AnswersMatch(submitted.Answer, correct)
		if settings.TimeLimit > 0 && submitted.TimeSpent > float64(settings.TimeLimit) {
			isCorrect = false
		}
		if isCorrect {
			result.CorrectAnswers++
		}
		result.TotalTimeSpent += submitted.TimeSpent

		result.Answers = append(result.Answers, models.AnswerRecord{
			Question:      submitted.Question,
			UserAnswer:    submitted.Answer,
			CorrectAnswer: correct,
			IsCorrect:     isCorrect,
			TimeSpent:     submitted.TimeSpent,
		})
	}

	result.Score = CalculateScore(result.TotalQuestions, result.CorrectAnswers)
	return result, nil
}

// CheckAnswer corrige una sola respuesta
func CheckAnswer(quiz models.Quiz, req models.CheckRequest) (models.CheckResponse, error) {
	correct, ok := newAnswerIndex(quiz).lookup(req.Question, req.Image)
	if !ok {
		return models.CheckResponse{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, req.Question)
	}
	return models.CheckResponse{
		IsCorrect:     AnswersMatch(req.Answer, correct),
		CorrectAnswer: correct,
	}, nil
}
