// Package fetch obtiene los CSV de quizzes desde un origen HTTP.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Options configura un Client
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Encoding string // utf-8 por defecto, euc-kr/cp949 para exportaciones de Excel coreano
	// Dial permite sustituir la conexión, p. ej. por un listener en memoria
	Dial            fasthttp.DialFunc
	MaxConnsPerHost int
}

// RequestOption modifica la petición antes de enviarla
type RequestOption func(req *fasthttp.Request)

// NoCache pide al origen (y a cualquier proxy intermedio) una respuesta fresca
func NoCache() RequestOption {
	return func(req *fasthttp.Request) {
		req.Header.Set(fasthttp.HeaderCacheControl, "no-cache")
	}
}

// Client cliente HTTP hacia el origen de los CSV
type Client struct {
	baseURL  string
	timeout  time.Duration
	encoding string
	http     *fasthttp.Client
	logger   *zap.Logger
}

// NewClient crea un cliente para el origen indicado
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		timeout:  opts.Timeout,
		encoding: opts.Encoding,
		// con el límite de conexiones alcanzado se espera turno en vez de fallar
		http: &fasthttp.Client{
			Name:                "quizdeck",
			Dial:                opts.Dial,
			MaxConnsPerHost:     opts.MaxConnsPerHost,
			MaxConnWaitTimeout:  opts.Timeout,
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
		logger: logger.Named("fetch"),
	}
}

// BaseURL devuelve la URL base del origen
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get descarga el recurso en path
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, fasthttp.MethodGet, path, opts)
}

// Head consulta el recurso en path sin descargar el cuerpo
func (c *Client) Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, fasthttp.MethodHead, path, opts)
}

func (c *Client) do(ctx context.Context, method, path string, opts []RequestOption) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.resolve(path))
	req.Header.SetMethod(method)
	for _, opt := range opts {
		opt(req)
	}
	if method == fasthttp.MethodHead {
		resp.SkipBody = true
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Debug("petición fallida",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	out := &Response{
		Status:       resp.StatusCode(),
		LastModified: string(resp.Header.Peek(fasthttp.HeaderLastModified)),
		encoding:     c.encoding,
	}
	if method != fasthttp.MethodHead {
		out.Body = append([]byte(nil), resp.Body()...)
	}

	c.logger.Debug("petición completada",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", out.Status),
		zap.Duration("elapsed", time.Since(start)))

	return out, nil
}

func (c *Client) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
