package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"eps-citas/internal/domain/resource"
	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/ports/auth"
)

const (
	MsgCredenciales        = "Credenciales inválidas"
	MsgRespuestaIncompleta = "Datos de respuesta incompletos del servidor"
)

var (
	ErrNotConfigured = errors.New("auth backend not configured")
	ErrUnauthorized  = errors.New("auth unauthorized")
	ErrUpstream      = errors.New("auth upstream error")
	ErrIncomplete    = errors.New("auth response incomplete")
)

// Client implementa auth.Authenticator contra POST /login del backend EPS.
type Client struct {
	doer resource.Doer
}

func NewClient(doer resource.Doer) *Client {
	return &Client{doer: doer}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.doer != nil
}

type loginPayload struct {
	User  *auth.User `json:"user"`
	Token string     `json:"token"`
	Tipo  string     `json:"tipo"`
}

// Login llama a /login. La respuesta puede venir como {user,token,tipo} o anidada en data.
// Los errores son *auth.LoginError con el mensaje para el usuario.
func (c *Client) Login(ctx context.Context, creds auth.Credentials) (auth.LoginResult, error) {
	if !c.IsConfigured() {
		return auth.LoginResult{}, &auth.LoginError{Message: resource.MsgNetwork, Err: ErrNotConfigured}
	}

	body := auth.Credentials{
		Email:    strings.TrimSpace(creds.Email),
		Password: creds.Password,
		Tipo:     creds.Tipo,
	}
	if body.Tipo == "" {
		body.Tipo = navigation.RolePaciente
	}

	resp, err := c.doer.Do(ctx, http.MethodPost, "/login", body)
	if err != nil {
		return auth.LoginResult{}, loginError(err)
	}

	var env struct {
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return auth.LoginResult{}, &auth.LoginError{Message: MsgRespuestaIncompleta, Err: ErrIncomplete}
	}
	if env.Success != nil && !*env.Success {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = MsgCredenciales
		}
		return auth.LoginResult{}, &auth.LoginError{Message: msg, Err: ErrUnauthorized}
	}

	var out loginPayload
	if err := json.Unmarshal(resource.Unwrap(resp.Body), &out); err != nil {
		return auth.LoginResult{}, &auth.LoginError{Message: MsgRespuestaIncompleta, Err: ErrIncomplete}
	}

	tipo := navigation.ParseRole(out.Tipo)
	token := strings.TrimSpace(out.Token)
	if out.User == nil || token == "" || tipo == "" {
		return auth.LoginResult{}, &auth.LoginError{Message: MsgRespuestaIncompleta, Err: ErrIncomplete}
	}

	user := *out.User
	user.Tipo = tipo
	return auth.LoginResult{User: user, Token: token, Tipo: tipo}, nil
}

func loginError(err error) error {
	if msg := httpclient.MessageOf(err); msg != "" {
		return &auth.LoginError{Message: msg, Err: ErrUnauthorized}
	}
	switch httpclient.KindOf(err) {
	case httpclient.KindNetwork:
		return &auth.LoginError{Message: resource.MsgNetwork, Err: ErrUpstream}
	case httpclient.KindTimeout:
		return &auth.LoginError{Message: resource.MsgTimeout, Err: ErrUpstream}
	case httpclient.KindUnauthorized, httpclient.KindValidation, httpclient.KindNotFound:
		return &auth.LoginError{Message: MsgCredenciales, Err: ErrUnauthorized}
	}
	return &auth.LoginError{Message: "Error en el login", Err: ErrUpstream}
}
