package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/config"
	"github.com/backsoul/quizdeck/pkg/logger"
	"github.com/backsoul/quizdeck/pkg/models"
	"github.com/backsoul/quizdeck/pkg/services"
	"github.com/backsoul/quizdeck/pkg/watch"
	"github.com/backsoul/quizdeck/pkg/websocket"
)

const shutdownTimeout = 10 * time.Second

type rootOptions struct {
	configPath string
	source     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "quizdeck",
		Short:        "Servidor y CLI de quizzes en CSV",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "archivo de configuración YAML")
	root.PersistentFlags().StringVar(&opts.source, "source", "", "URL base del origen de los CSV")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "logs en nivel debug")

	root.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newScoreCmd(),
	)
	return root
}

// load lee la configuración y aplica los flags globales
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.source != "" {
		cfg.Source.BaseURL = o.source
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Arranca el servidor HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("🚀 Iniciando quizdeck")

	a, err := openApp(ctx, cfg, cfg.Cache.Backend, log)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	a.catalog.SetNotifier(hub)

	if cfg.Server.Watch {
		w, err := watch.New(cfg.Server.StaticDir, watch.DefaultDebounce, a.contentChanged, log)
		if err != nil {
			log.Warn("⚠️ No se pudo crear el watcher", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			log.Warn("⚠️ No se pudo vigilar el directorio estático", zap.String("dir", cfg.Server.StaticDir), zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	r := newRouter(a, hub, cfg.Server.StaticDir, log)
	server := &fasthttp.Server{
		Handler: r.requestHandler,
		Name:    "quizdeck",
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	log.Info("🎮 Servidor iniciado",
		zap.String("addr", cfg.Server.Addr),
		zap.String("static", cfg.Server.StaticDir),
		zap.String("source", cfg.Source.BaseURL),
		zap.String("cache", cfg.Cache.Backend))
	log.Info("📊 API Quizzes: /api/quizzes · 🔧 Health: /api/health · 🔌 WebSocket: /ws")

	select {
	case err := <-errCh:
		return fmt.Errorf("error al iniciar el servidor: %w", err)
	case <-ctx.Done():
	}

	log.Info("🛑 Deteniendo servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista los quizzes disponibles en el origen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			a, err := openApp(cmd.Context(), cfg, "memory", log)
			if err != nil {
				return err
			}
			defer a.Close()

			var quizzes []models.QuizMetadata
			if probe {
				quizzes = a.catalog.Discover(cmd.Context())
			} else {
				quizzes = a.catalog.Metadata(cmd.Context())
			}
			renderCatalog(cmd.OutOrStdout(), quizzes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "probar la lista fija de carpetas en vez de leer quizzes.csv")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var (
		noImages bool
		shuffle  bool
	)

	cmd := &cobra.Command{
		Use:   "show <carpeta>",
		Short: "Muestra las preguntas de un quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			a, err := openApp(cmd.Context(), cfg, "memory", log)
			if err != nil {
				return err
			}
			defer a.Close()

			settings := models.DefaultSettings()
			settings.EnableImages = !noImages
			settings.ShuffleQuestions = shuffle

			quiz, err := a.quizzes.PrepareQuiz(cmd.Context(), args[0], settings)
			if err != nil {
				return err
			}
			renderQuiz(cmd.OutOrStdout(), args[0], quiz)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noImages, "no-images", false, "omitir preguntas con imagen")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "mezclar las preguntas")
	return cmd
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <total> <correctas>",
		Short: "Calcula la puntuación en porcentaje",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("total inválido %q: %w", args[0], err)
			}
			correct, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("correctas inválido %q: %w", args[1], err)
			}
			if total < 0 || correct < 0 || correct > total {
				return fmt.Errorf("se requiere 0 <= correctas <= total")
			}

			renderScore(cmd.OutOrStdout(), total, correct, services.CalculateScore(total, correct))
			return nil
		},
	}
}
