package services

import "errors"

var (
	// ErrQuizUnavailable el quiz no se pudo cargar (origen, formato o nombre)
	ErrQuizUnavailable = errors.New("no se puede cargar el quiz")
	// ErrInvalidFormat el CSV no tiene la forma esperada
	ErrInvalidFormat = errors.New("formato de CSV inválido")
	// ErrUnknownQuestion la respuesta enviada no corresponde a ninguna pregunta del quiz
	ErrUnknownQuestion = errors.New("pregunta desconocida")
)
