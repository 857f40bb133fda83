// Package watch vigila el directorio estático y avisa cuando cambian los CSV
// de quizzes para que las cachés se invaliden sin reiniciar el servidor.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce espera tras el último evento antes de avisar
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc recibe las rutas de los CSV que cambiaron, ordenadas
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher vigila <root> y <root>/quizzes/<carpeta>
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange ChangeFunc
	pending  map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	logger   *zap.Logger
}

// New crea un watcher sin arrancar
func New(root string, debounce time.Duration, onChange ChangeFunc, logger *zap.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: onChange es requerido")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fs:       fsw,
		root:     root,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logger.Named("watch"),
	}, nil
}

// Start registra los directorios y arranca el bucle de eventos en segundo plano
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fs.Add(w.root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.fs.Close()
		return err
	}

	quizzesDir := filepath.Join(w.root, "quizzes")
	if err := w.addTree(quizzesDir); err != nil {
		// quizzes/ puede crearse más tarde; el evento Create lo recoge
		w.logger.Warn("no se pudo vigilar quizzes/", zap.String("dir", quizzesDir), zap.Error(err))
	}

	w.logger.Info("👀 Vigilando CSV de quizzes", zap.String("root", w.root))
	go w.run(ctx)
	return nil
}

// Stop detiene el bucle y libera el watcher
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fs.Close(); err != nil {
		w.logger.Error("error cerrando watcher", zap.Error(err))
	}
}

// addTree vigila dir y sus subdirectorios directos (una carpeta por quiz)
func (w *Watcher) addTree(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if err := w.fs.Add(sub); err != nil {
			w.logger.Warn("no se pudo vigilar carpeta", zap.String("dir", sub), zap.Error(err))
		}
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("error del watcher", zap.Error(err))

		case now := <-ticker.C:
			if paths := w.due(now); len(paths) > 0 {
				w.logger.Info("🔄 CSV de quizzes modificados", zap.Strings("paths", paths))
				w.onChange(ctx, paths)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchNewDir(event.Name)
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug("evento de archivo", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	w.pending[event.Name] = time.Now()
}

// watchNewDir sigue carpetas creadas en caliente: quizzes/ bajo la raíz o una
// carpeta de quiz bajo quizzes/
func (w *Watcher) watchNewDir(dir string) {
	quizzesDir := filepath.Join(w.root, "quizzes")

	switch filepath.Dir(dir) {
	case w.root:
		if filepath.Base(dir) != "quizzes" {
			return
		}
		if err := w.addTree(dir); err != nil {
			w.logger.Warn("no se pudo vigilar quizzes/", zap.String("dir", dir), zap.Error(err))
		}
	case quizzesDir:
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn("no se pudo vigilar carpeta", zap.String("dir", dir), zap.Error(err))
			return
		}
		// el CSV pudo copiarse antes de registrar la carpeta
		if matches, _ := filepath.Glob(filepath.Join(dir, "*.csv")); len(matches) > 0 {
			now := time.Now()
			for _, m := range matches {
				w.pending[m] = now
			}
		}
	}
}

// due saca de pending las rutas sin eventos durante al menos debounce
func (w *Watcher) due(now time.Time) []string {
	var paths []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			paths = append(paths, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(paths)
	return paths
}
