package models

// QuizQuestion estructura para representar una pregunta del quiz
type QuizQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	// Image es relativa a la raíz de quizzes: "<carpeta>/<archivo>"
	Image string `json:"image,omitempty"`
}

// Quiz estructura para un quiz completo cargado desde su CSV
type Quiz struct {
	Title     string         `json:"title"`
	Grade     string         `json:"grade"`
	Questions []QuizQuestion `json:"questions"`
}

// Clone devuelve una copia que no comparte el slice de preguntas
func (q Quiz) Clone() Quiz {
	out := q
	if q.Questions != nil {
		out.Questions = make([]QuizQuestion, len(q.Questions))
		copy(out.Questions, q.Questions)
	}
	return out
}

// HasImages indica si alguna pregunta trae imagen
func (q Quiz) HasImages() bool {
	for _, question := range q.Questions {
		if question.Image != "" {
			return true
		}
	}
	return false
}

// QuizMetadata entrada del catálogo de quizzes
type QuizMetadata struct {
	Filename string `json:"filename"` // nombre de la carpeta del quiz
	Title    string `json:"title"`
	Grade    string `json:"grade"`
}

// APIResponse estructura estándar para respuestas de API
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QuizResponse respuesta específica para un quiz preparado
type QuizResponse struct {
	Name     string       `json:"name"`
	Quiz     Quiz         `json:"quiz"`
	Settings QuizSettings `json:"settings"`
	Count    int          `json:"count"`
}

// CatalogResponse respuesta para el listado de quizzes
type CatalogResponse struct {
	Quizzes []QuizMetadata `json:"quizzes"`
	Count   int            `json:"count"`
}
