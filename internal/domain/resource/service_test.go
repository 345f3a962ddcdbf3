package resource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"eps-citas/internal/platform/httpclient"
)

type cita struct {
	ID     int64  `json:"id"`
	Estado string `json:"estado"`
}

func newClient(t *testing.T, h http.HandlerFunc) *httpclient.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := httpclient.New(httpclient.Config{BaseURL: ts.URL + "/api"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

type panicDoer struct{}

func (panicDoer) Do(context.Context, string, string, any) (*httpclient.Response, error) {
	panic("boom")
}

func TestDelete_Server500UsesOperationDefault(t *testing.T) {
	var gotMethod, gotPath string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusInternalServerError)
	})

	svc := New[cita](c, "citas", WithLabel("cita"))
	res := svc.Delete(context.Background(), 42)

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Message != "Error al eliminar cita" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if res.Kind != httpclient.KindServer || res.Status != 500 {
		t.Fatalf("unexpected kind/status %s/%d", res.Kind, res.Status)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/citas/42" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestCall_BackendMessageWins(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"success":false,"message":"La fecha es obligatoria"}`)
	})
	res := New[cita](c, "citas", WithLabel("cita")).Create(context.Background(), map[string]any{})
	if res.Success || res.Message != "La fecha es obligatoria" || res.Kind != httpclient.KindValidation {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCall_TransportFailureNeverPanics(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()
	c, err := httpclient.New(httpclient.Config{BaseURL: url})
	if err != nil {
		t.Fatal(err)
	}

	svc := New[cita](c, "citas")
	results := []Result[[]cita]{svc.GetAll(context.Background())}
	for _, r := range results {
		if r.Success || r.Message == "" {
			t.Fatalf("expected failure with message, got %+v", r)
		}
		if r.Message != MsgNetwork {
			t.Fatalf("unexpected network message %q", r.Message)
		}
	}
	if r := svc.GetByID(context.Background(), 1); r.Success || r.Message == "" {
		t.Fatalf("expected failure, got %+v", r)
	}
	if r := svc.Update(context.Background(), 1, map[string]any{"estado": "x"}); r.Success || r.Message == "" {
		t.Fatalf("expected failure, got %+v", r)
	}
}

func TestCall_RecoversPanic(t *testing.T) {
	svc := New[cita](panicDoer{}, "citas", WithLabel("cita"))
	res := svc.GetAll(context.Background())
	if res.Success || res.Message != "Error al obtener cita" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestGetAll_UnwrapsAndIsIdempotent(t *testing.T) {
	bodies := []string{
		`{"success":true,"data":[{"id":1,"estado":"programada"},{"id":2,"estado":"confirmada"}]}`,
		`[{"id":1,"estado":"programada"},{"id":2,"estado":"confirmada"}]`,
	}
	for _, body := range bodies {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		svc := New[cita](c, "/citas/")
		a := svc.GetAll(context.Background())
		b := svc.GetAll(context.Background())
		if !a.Success || !b.Success {
			t.Fatalf("expected success: %+v %+v", a, b)
		}
		if len(a.Data) != 2 || len(a.Data) != len(b.Data) {
			t.Fatalf("expected equal lengths: %d %d", len(a.Data), len(b.Data))
		}
		for i := range a.Data {
			if a.Data[i].ID != b.Data[i].ID {
				t.Fatalf("ids differ at %d", i)
			}
		}
	}
}

func TestGetAll_EmptyDataIsEmptySlice(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	})
	res := New[cita](c, "citas").GetAll(context.Background())
	if !res.Success || res.Data == nil || len(res.Data) != 0 {
		t.Fatalf("expected empty non-nil slice, got %+v", res)
	}
}

func TestCall_SuccessFalseOn200IsFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"Cita no disponible"}`)
	})
	res := New[cita](c, "citas").GetByID(context.Background(), 3)
	if res.Success || res.Message != "Cita no disponible" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCall_DecodeFailure(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":"not an object"}`)
	})
	res := New[cita](c, "citas").GetByID(context.Background(), 3)
	if res.Success || res.Kind != httpclient.KindDecode || res.Message == "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDelete_ReturnsRawData(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"deleted":42}}`)
	})
	res := New[cita](c, "citas").Delete(context.Background(), 42)
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	var got map[string]int
	if err := json.Unmarshal(res.Data, &got); err != nil || got["deleted"] != 42 {
		t.Fatalf("unexpected data %s (%v)", res.Data, err)
	}
}

func TestUnwrap(t *testing.T) {
	cases := map[string]string{
		`{"data":{"id":1}}`:               `{"id":1}`,
		`{"success":true,"data":null}`:    `{"success":true,"data":null}`,
		`{"id":1}`:                        `{"id":1}`,
		`[1,2]`:                           `[1,2]`,
		`  {"message":"ok","data":[1]} `: `[1]`,
	}
	for in, want := range cases {
		if got := string(Unwrap([]byte(in))); got != want {
			t.Errorf("Unwrap(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestGetAll_NullDataIsEmptySlice(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":null,"message":"sin registros"}`)
	})
	res := New[cita](c, "citas").GetAll(context.Background())
	if !res.Success || res.Data == nil || len(res.Data) != 0 {
		t.Fatalf("expected empty slice, got %+v", res)
	}
}
