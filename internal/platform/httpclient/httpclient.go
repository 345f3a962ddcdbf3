package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eps-citas/internal/platform/breaker"
	"eps-citas/internal/platform/logger"
	"eps-citas/internal/platform/metrics"

	"github.com/google/uuid"
)

const (
	DefaultTimeout = 30 * time.Second

	maxBody = 1 << 20 // 1MB
)

// ErrForeignURL: path absoluto fuera del host de BaseURL.
var ErrForeignURL = errors.New("httpclient: absolute url outside base origin")

// TokenSource entrega el token persistido. "" significa sin sesión.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapta una función a TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Config del cliente contra el backend EPS.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// Tokens se consulta antes de cada request (opcional).
	Tokens TokenSource
	// OnUnauthorized se invoca de forma síncrona ante un 401, antes de devolver el error.
	OnUnauthorized func(ctx context.Context)

	Logger  logger.Logger
	Metrics *metrics.ClientMetrics
	Breaker *breaker.Breaker

	// Transport permite inyectar un RoundTripper (tests).
	Transport http.RoundTripper
}

// Client envuelve *http.Client con los interceptores de auth y sesión.
type Client struct {
	HTTP    *http.Client
	BaseURL string

	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	log            logger.Logger
	metrics        *metrics.ClientMetrics
	breaker        *breaker.Breaker
	newRequestID   func() string
}

// Response es la respuesta cruda (2xx) del backend.
type Response struct {
	StatusCode int
	Body       []byte
}

// New crea un Client. BaseURL es obligatoria.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("httpclient: base url required")
	}
	u, err := url.ParseRequestURI(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid base url: %q", base)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := cfg.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		BaseURL:        strings.TrimRight(base, "/"),
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		log:            log.With(map[string]any{"component": "httpclient"}),
		metrics:        cfg.Metrics,
		breaker:        cfg.Breaker,
		newRequestID:   uuid.NewString,
	}, nil
}

// Do envía un request JSON y devuelve el body crudo de una respuesta 2xx.
// - in: body a enviar (opcional). Si nil => no body.
// - no reintenta: cada llamada sale una sola vez.
// Errores: *HTTPError (no-2xx) o *TransportError (sin respuesta).
func (c *Client) Do(ctx context.Context, method, path string, in any) (*Response, error) {
	if c == nil || c.HTTP == nil {
		return nil, errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(path)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if in != nil {
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal json: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.send(ctx, method, fullURL, payload)
	kind := KindOf(err)
	c.metrics.ObserveRequest(method, kindLabel(kind), time.Since(start))

	fields := map[string]any{
		"method":      method,
		"path":        path,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["kind"] = string(kind)
		if st := StatusOf(err); st != 0 {
			fields["status"] = st
		}
		c.log.Debug("backend request failed", fields)
	} else {
		fields["status"] = resp.StatusCode
		c.log.Debug("backend request", fields)
	}

	if kind == KindUnauthorized && c.onUnauthorized != nil {
		// La purga no debe depender de que el caller siga vivo.
		c.onUnauthorized(context.WithoutCancel(ctx))
	}

	return resp, err
}

// DoJSON es Do + decode del body en out (si out != nil y hay body).
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.Do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, fullURL string, payload []byte) (*Response, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, method, fullURL, payload)
	}

	v, err := c.breaker.Execute(func() (any, bool, error) {
		resp, err := c.roundTrip(ctx, method, fullURL, payload)
		k := KindOf(err)
		return resp, k == KindNetwork || k == KindTimeout || k == KindServer, err
	})
	if errors.Is(err, breaker.ErrOpen) {
		return nil, &TransportError{Kind: KindNetwork, Err: err}
	}
	resp, _ := v.(*Response)
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, method, fullURL string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", c.newRequestID())

	// Interceptor de request: sin token => request sin auth, nunca aborta.
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.log.Warn("token read failed, sending unauthenticated", map[string]any{"error": err})
		} else if token = strings.TrimSpace(token); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransportError{Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &TransportError{Kind: classifyTransport(err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			Message:    envelopeMessage(raw),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

func (c *Client) resolveURL(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("httpclient: empty path")
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		// El token solo viaja al origen configurado.
		if !c.sameOrigin(path) {
			return "", fmt.Errorf("%w: %q", ErrForeignURL, path)
		}
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path, nil
}

func (c *Client) sameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host)
}

func kindLabel(k Kind) string {
	if k == KindNone {
		return "ok"
	}
	return string(k)
}
