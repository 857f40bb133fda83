package models

import "encoding/json"

// QuizMode modo de corrección del quiz
type QuizMode string

const (
	// ModeImmediate corrige cada respuesta al momento
	ModeImmediate QuizMode = "immediate"
	// ModeComplete corrige todo al terminar
	ModeComplete QuizMode = "complete"
)

// Valid indica si el modo es conocido
func (m QuizMode) Valid() bool {
	return m == ModeImmediate || m == ModeComplete
}

// QuizSettings opciones con las que se presenta un quiz
type QuizSettings struct {
	Mode             QuizMode `json:"mode"`
	ShuffleQuestions bool     `json:"shuffleQuestions"`
	TimeLimit        int      `json:"timeLimit,omitempty"` // segundos por pregunta, 0 = sin límite
	EnableImages     bool     `json:"enableImages"`
}

// DefaultSettings configuración por defecto
func DefaultSettings() QuizSettings {
	return QuizSettings{
		Mode:         ModeComplete,
		EnableImages: true,
	}
}

// UnmarshalJSON parte de DefaultSettings, así los campos ausentes conservan
// su valor por defecto (p. ej. enableImages en true)
func (s *QuizSettings) UnmarshalJSON(data []byte) error {
	type plain QuizSettings
	settings := plain(DefaultSettings())
	if err := json.Unmarshal(data, &settings); err != nil {
		return err
	}
	*s = QuizSettings(settings)
	return nil
}

// AnswerRecord respuesta corregida de una pregunta
type AnswerRecord struct {
	Question      string  `json:"question"`
	UserAnswer    string  `json:"userAnswer"`
	CorrectAnswer string  `json:"correctAnswer"`
	IsCorrect     bool    `json:"isCorrect"`
	TimeSpent     float64 `json:"timeSpent,omitempty"` // segundos
}

// QuizResult resultado de un intento
type QuizResult struct {
	ID             string         `json:"id"`
	Quiz           string         `json:"quiz"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectAnswers int            `json:"correctAnswers"`
	Score          int            `json:"score"`
	Answers        []AnswerRecord `json:"answers"`
	TotalTimeSpent float64        `json:"totalTimeSpent,omitempty"`
}

// SubmittedAnswer respuesta enviada por el navegador
type SubmittedAnswer struct {
	Question string `json:"question"`
	// Image distingue preguntas con el mismo texto y distinta imagen
	Image     string  `json:"image,omitempty"`
	Answer    string  `json:"answer"`
	TimeSpent float64 `json:"timeSpent,omitempty"`
}

// ResultRequest request para corregir un intento completo
type ResultRequest struct {
	Quiz     string            `json:"quiz"`
	Settings *QuizSettings     `json:"settings,omitempty"`
	Answers  []SubmittedAnswer `json:"answers"`
}

// CheckRequest request para corregir una sola respuesta (modo immediate)
type CheckRequest struct {
	Question     string `json:"question"`
	Image        string `json:"image,omitempty"`
	Answer       string `json:"answer"`
	EnableImages *bool  `json:"enableImages,omitempty"`
}

// CheckResponse resultado de corregir una sola respuesta
type CheckResponse struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
}
