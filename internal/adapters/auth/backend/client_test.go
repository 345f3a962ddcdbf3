package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"eps-citas/internal/navigation"
	"eps-citas/internal/platform/httpclient"
	"eps-citas/internal/ports/auth"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	hc, err := httpclient.New(httpclient.Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(hc)
}

func TestLogin_NestedEnvelopeUsesBackendRole(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"user":{"id":7,"nombre":"Doc"},"token":"abc","tipo":"medico"}}`)
	})

	res, err := c.Login(context.Background(), auth.Credentials{Email: "doc@test.com", Password: "x", Tipo: navigation.RolePaciente})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.User.ID != 7 || res.Token != "abc" || res.Tipo != navigation.RoleMedico || res.User.Tipo != navigation.RoleMedico {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLogin_FlatResponse(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user":{"id":1,"nombre":"Ana"},"token":"t1","tipo":"admin"}`)
	})
	res, err := c.Login(context.Background(), auth.Credentials{Email: "a@b.co", Password: "x"})
	if err != nil || res.Tipo != navigation.RoleAdmin {
		t.Fatalf("unexpected %+v %v", res, err)
	}
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"backend message", http.StatusUnauthorized, `{"success":false,"message":"Usuario no encontrado"}`, "Usuario no encontrado"},
		{"401 sin mensaje", http.StatusUnauthorized, ``, MsgCredenciales},
		{"success false en 200", http.StatusOK, `{"success":false}`, MsgCredenciales},
		{"sin token", http.StatusOK, `{"success":true,"data":{"user":{"id":1},"tipo":"medico"}}`, MsgRespuestaIncompleta},
		{"tipo desconocido", http.StatusOK, `{"success":true,"data":{"user":{"id":1},"token":"x","tipo":"root"}}`, MsgRespuestaIncompleta},
		{"no json", http.StatusOK, `<html>`, MsgRespuestaIncompleta},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.Login(context.Background(), auth.Credentials{Email: "a@b.co", Password: "x"})
			var le *auth.LoginError
			if !errors.As(err, &le) {
				t.Fatalf("expected LoginError, got %v", err)
			}
			if le.Message != tc.want {
				t.Fatalf("got %q want %q", le.Message, tc.want)
			}
		})
	}
}

func TestLogin_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	hc, _ := httpclient.New(httpclient.Config{BaseURL: url})

	_, err := NewClient(hc).Login(context.Background(), auth.Credentials{Email: "a@b.co", Password: "x"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
