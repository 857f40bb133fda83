package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/handlers"
	"github.com/backsoul/quizdeck/pkg/websocket"
)

const requestIDHeader = "X-Request-ID"

// router despacha las rutas de la API y sirve el resto desde el directorio estático
type router struct {
	quizHandler   *handlers.QuizHandler
	resultHandler *handlers.ResultHandler
	socketHandler *handlers.SocketHandler
	static        fasthttp.RequestHandler
	logger        *zap.Logger
}

func newRouter(a *app, hub *websocket.Hub, staticDir string, logger *zap.Logger) *router {
	fs := &fasthttp.FS{
		Root:            staticDir,
		IndexNames:      []string{"index.html"},
		SkipCache:       true, // los CSV se editan en caliente
		AcceptByteRange: true,
		PathNotFound:    handlers.NotFound,
	}

	return &router{
		quizHandler:   handlers.NewQuizHandler(a.quizzes, a.catalog, logger),
		resultHandler: handlers.NewResultHandler(a.quizzes, logger),
		socketHandler: handlers.NewSocketHandler(a.catalog, hub, logger),
		static:        fs.NewRequestHandler(),
		logger:        logger.Named("http"),
	}
}

func (r *router) requestHandler(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	requestID := string(ctx.Request.Header.Peek(requestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx.Response.Header.Set(requestIDHeader, requestID)

	r.route(ctx)

	r.logger.Info("📡 petición",
		zap.String("id", requestID),
		zap.ByteString("method", ctx.Method()),
		zap.ByteString("path", ctx.Path()),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)))
}

func (r *router) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	ctx.Response.Header.Set("Server", "quizdeck")

	// Headers CORS para el navegador
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Cache-Control, X-Request-ID")

	// Manejar preflight requests
	if method == fasthttp.MethodOptions {
		ctx.SetStatusCode(fasthttp.StatusOK)
		return
	}

	switch {
	case path == "/api/health":
		r.quizHandler.HealthCheck(ctx)

	case path == "/api/quizzes" && method == fasthttp.MethodGet:
		r.quizHandler.ListQuizzes(ctx)
	case path == "/api/quizzes/discover" && method == fasthttp.MethodGet:
		r.quizHandler.DiscoverQuizzes(ctx)
	case path == "/api/quizzes/reload" && method == fasthttp.MethodPost:
		r.quizHandler.ReloadQuizzes(ctx)
	case strings.HasPrefix(path, "/api/quizzes/"):
		r.routeQuiz(ctx, path, method)

	case path == "/api/results" && method == fasthttp.MethodPost:
		r.resultHandler.SubmitResult(ctx)
	case path == "/api/score" && method == fasthttp.MethodGet:
		r.resultHandler.GetScore(ctx)

	case path == "/ws":
		r.socketHandler.HandleWebSocket(ctx)

	case strings.HasPrefix(path, "/api/"):
		handlers.NotFound(ctx)

	default:
		r.static(ctx)
	}
}

// routeQuiz maneja /api/quizzes/{name}, /valid y /check
func (r *router) routeQuiz(ctx *fasthttp.RequestCtx, path, method string) {
	parts := strings.Split(strings.TrimPrefix(path, "/api/quizzes/"), "/")
	if parts[0] == "" {
		handlers.NotFound(ctx)
		return
	}
	ctx.SetUserValue("name", parts[0])

	switch {
	case len(parts) == 1 && method == fasthttp.MethodGet:
		r.quizHandler.GetQuiz(ctx)
	case len(parts) == 2 && parts[1] == "valid" && method == fasthttp.MethodGet:
		r.quizHandler.ValidateQuiz(ctx)
	case len(parts) == 2 && parts[1] == "check" && method == fasthttp.MethodPost:
		r.quizHandler.CheckAnswer(ctx)
	default:
		handlers.NotFound(ctx)
	}
}
