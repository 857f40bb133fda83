package handlers

import (
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/models"
	"github.com/backsoul/quizdeck/pkg/services"
)

// ResultHandler corrige intentos terminados; los resultados no se guardan
type ResultHandler struct {
	quizService *services.QuizService
	logger      *zap.Logger
}

// NewResultHandler crea una nueva instancia del handler
func NewResultHandler(quizService *services.QuizService, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{
		quizService: quizService,
		logger:      logger.Named("results"),
	}
}

// SubmitResult maneja POST /api/results
func (h *ResultHandler) SubmitResult(ctx *fasthttp.RequestCtx) {
	var req models.ResultRequest
	if err := decodeBody(ctx, &req); err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
		return
	}

	if req.Quiz == "" {
		respondWithError(ctx, fasthttp.StatusBadRequest, "El quiz es requerido")
		return
	}
	if len(req.Answers) == 0 {
		respondWithError(ctx, fasthttp.StatusBadRequest, "No hay respuestas para corregir")
		return
	}
	if req.Settings != nil && req.Settings.Mode != "" && !req.Settings.Mode.Valid() {
		respondWithError(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("modo inválido: %q", req.Settings.Mode))
		return
	}

	result, err := h.quizService.GradeAttempt(ctx, req)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error corrigiendo intento: %v", err))
		return
	}

	h.logger.Info("📝 Intento corregido",
		zap.String("id", result.ID),
		zap.String("quiz", result.Quiz),
		zap.Int("score", result.Score))

	respondWithSuccess(ctx, result, "Intento corregido exitosamente")
}

// GetScore maneja GET /api/score?total=&correct=
func (h *ResultHandler) GetScore(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	total, err := args.GetUint("total")
	if err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "Parámetro total inválido")
		return
	}
	correct, err := args.GetUint("correct")
	if err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "Parámetro correct inválido")
		return
	}
	if correct > total {
		respondWithError(ctx, fasthttp.StatusBadRequest, "correct no puede ser mayor que total")
		return
	}

	respondWithSuccess(ctx, map[string]int{
		"total":   total,
		"correct": correct,
		"score":   services.CalculateScore(total, correct),
	}, "")
}
