package handlers

import (
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/models"
	"github.com/backsoul/quizdeck/pkg/services"
)

// QuizHandler maneja las peticiones HTTP del catálogo y de los quizzes
type QuizHandler struct {
	quizService    *services.QuizService
	catalogService *services.CatalogService
	logger         *zap.Logger
}

// NewQuizHandler crea una nueva instancia del handler
func NewQuizHandler(quizService *services.QuizService, catalogService *services.CatalogService, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		catalogService: catalogService,
		logger:         logger.Named("handlers"),
	}
}

// HealthCheck maneja GET /api/health
func (h *QuizHandler) HealthCheck(ctx *fasthttp.RequestCtx) {
	if err := h.quizService.HealthCheck(ctx); err != nil {
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, fmt.Sprintf("Servicio no disponible: %v", err))
		return
	}

	respondWithSuccess(ctx, map[string]string{
		"status": "healthy",
		"cache":  "ok",
	}, "Servicio funcionando correctamente")
}

// ListQuizzes maneja GET /api/quizzes
func (h *QuizHandler) ListQuizzes(ctx *fasthttp.RequestCtx) {
	quizzes := h.catalogService.Metadata(ctx)
	respondWithSuccess(ctx, models.CatalogResponse{
		Quizzes: quizzes,
		Count:   len(quizzes),
	}, "Quizzes obtenidos exitosamente")
}

// DiscoverQuizzes maneja GET /api/quizzes/discover
func (h *QuizHandler) DiscoverQuizzes(ctx *fasthttp.RequestCtx) {
	quizzes := h.catalogService.Discover(ctx)
	respondWithSuccess(ctx, models.CatalogResponse{
		Quizzes: quizzes,
		Count:   len(quizzes),
	}, "Quizzes descubiertos")
}

// ReloadQuizzes maneja POST /api/quizzes/reload
func (h *QuizHandler) ReloadQuizzes(ctx *fasthttp.RequestCtx) {
	if err := h.quizService.Invalidate(ctx); err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, fmt.Sprintf("Error recargando quizzes: %v", err))
		return
	}
	h.catalogService.Invalidate()

	quizzes := h.catalogService.Metadata(ctx)
	respondWithSuccess(ctx, models.CatalogResponse{
		Quizzes: quizzes,
		Count:   len(quizzes),
	}, "Quizzes recargados exitosamente")
}

// GetQuiz maneja GET /api/quizzes/{name}?images=&shuffle=&mode=&timeLimit=
func (h *QuizHandler) GetQuiz(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("name").(string)

	settings, err := parseSettings(ctx.QueryArgs())
	if err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	quiz, err := h.quizService.PrepareQuiz(ctx, name, settings)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error cargando quiz: %v", err))
		return
	}

	respondWithSuccess(ctx, models.QuizResponse{
		Name:     name,
		Quiz:     quiz,
		Settings: settings,
		Count:    len(quiz.Questions),
	}, "Quiz obtenido exitosamente")
}

// ValidateQuiz maneja GET /api/quizzes/{name}/valid
func (h *QuizHandler) ValidateQuiz(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("name").(string)

	respondWithSuccess(ctx, map[string]interface{}{
		"name":  name,
		"valid": h.catalogService.IsQuizValid(ctx, name),
	}, "")
}

// CheckAnswer maneja POST /api/quizzes/{name}/check
func (h *QuizHandler) CheckAnswer(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("name").(string)

	var req models.CheckRequest
	if err := decodeBody(ctx, &req); err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
		return
	}
	if req.Question == "" {
		respondWithError(ctx, fasthttp.StatusBadRequest, "La pregunta es requerida")
		return
	}

	check, err := h.quizService.Check(ctx, name, req)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error corrigiendo respuesta: %v", err))
		return
	}

	respondWithSuccess(ctx, check, "")
}

// parseSettings lee los ajustes del quiz desde la query; sin parámetros se
// usan los valores por defecto.
func parseSettings(args *fasthttp.Args) (models.QuizSettings, error) {
	settings := models.DefaultSettings()

	if args.Has("images") {
		v, err := strconv.ParseBool(string(args.Peek("images")))
		if err != nil {
			return settings, fmt.Errorf("parámetro images inválido: %q", args.Peek("images"))
		}
		settings.EnableImages = v
	}

	if args.Has("shuffle") {
		v, err := strconv.ParseBool(string(args.Peek("shuffle")))
		if err != nil {
			return settings, fmt.Errorf("parámetro shuffle inválido: %q", args.Peek("shuffle"))
		}
		settings.ShuffleQuestions = v
	}

	if args.Has("mode") {
		mode := models.QuizMode(args.Peek("mode"))
		if !mode.Valid() {
			return settings, fmt.Errorf("modo inválido: %q", mode)
		}
		settings.Mode = mode
	}

	if args.Has("timeLimit") {
		v, err := strconv.Atoi(string(args.Peek("timeLimit")))
		if err != nil || v < 0 {
			return settings, fmt.Errorf("parámetro timeLimit inválido: %q", args.Peek("timeLimit"))
		}
		settings.TimeLimit = v
	}

	return settings, nil
}
