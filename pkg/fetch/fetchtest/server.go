// Package fetchtest levanta un origen HTTP en memoria para probar la carga de quizzes.
package fetchtest

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/backsoul/quizdeck/pkg/fetch"
)

// BaseURL URL base ficticia; el Dial en memoria ignora el host
const BaseURL = "http://quizzes.test"

// File recurso servido por el origen de prueba
type File struct {
	Body         string
	LastModified string
	Status       int // 200 si es cero
	// Delay retrasa la respuesta para simular un origen lento
	Delay time.Duration
}

// Server origen HTTP en memoria
type Server struct {
	mu    sync.Mutex
	files map[string]File
	hits  map[string]int
	ln    *fasthttputil.InmemoryListener
}

// NewServer arranca un origen vacío que se cierra al terminar el test
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		files: make(map[string]File),
		hits:  make(map[string]int),
		ln:    fasthttputil.NewInmemoryListener(),
	}
	srv := &fasthttp.Server{Handler: s.handle}
	go srv.Serve(s.ln) //nolint:errcheck
	t.Cleanup(func() { s.ln.Close() })

	return s
}

// Put publica body en path
func (s *Server) Put(path, body string) {
	s.PutFile(path, File{Body: body})
}

// PutFile publica un recurso con cabeceras y estado
func (s *Server) PutFile(path string, f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = f
}

// Remove retira un recurso; pasará a responder 404
func (s *Server) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
}

// Hits número de peticiones recibidas para method y path
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Dial conecta al listener en memoria
func (s *Server) Dial(string) (net.Conn, error) {
	return s.ln.Dial()
}

// Client crea un fetch.Client apuntando a este origen
func (s *Server) Client(encoding string) *fetch.Client {
	return s.NewClient(fetch.Options{Encoding: encoding})
}

// NewClient crea un fetch.Client con opts, forzando URL base y Dial del origen
func (s *Server) NewClient(opts fetch.Options) *fetch.Client {
	opts.BaseURL = BaseURL
	opts.Dial = s.Dial
	return fetch.NewClient(opts, zap.NewNop())
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	s.mu.Lock()
	s.hits[string(ctx.Method())+" "+path]++
	f, ok := s.files[path]
	s.mu.Unlock()

	if !ok {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("not found")
		return
	}

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	if f.LastModified != "" {
		ctx.Response.Header.Set(fasthttp.HeaderLastModified, f.LastModified)
	}
	status := f.Status
	if status == 0 {
		status = fasthttp.StatusOK
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("text/csv; charset=utf-8")
	ctx.SetBodyString(f.Body)
}
