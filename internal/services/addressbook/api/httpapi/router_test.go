package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	apperrors "github.com/louisbranch/addressbook/internal/platform/errors"
	"github.com/louisbranch/addressbook/internal/platform/id"
	"github.com/louisbranch/addressbook/internal/platform/metrics"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/engine"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify"
	"github.com/louisbranch/addressbook/internal/services/addressbook/notify/render"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection"
	"github.com/louisbranch/addressbook/internal/services/addressbook/service"
	"github.com/louisbranch/addressbook/internal/services/addressbook/storage/memory"
)

type testServer struct {
	srv    *httptest.Server
	outbox *notify.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	outbox := &notify.Recorder{}
	svc, err := service.New(service.Deps{
		Log:       memory.NewEventLog(),
		Projector: projection.Projector{Store: memory.NewIndexStore(), Metrics: m},
		Notifier:  outbox,
		IDs:       id.NewSequence("id"),
		Renderer:  render.NewRenderer("http://book.test", language.English),
		Metrics:   m,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	srv := httptest.NewServer(NewRouter(svc, Options{Gatherer: reg}))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, outbox: outbox}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := s.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decodeInto[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/profiles", `{"name":"ada","email":"ada@example.com"}`)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", status, body)
	}
	created := decodeInto[service.ProfileView](t, body)
	if created.Name != "ada" || created.ID == "" {
		t.Fatalf("created = %+v", created)
	}

	status, body = s.do(t, http.MethodPost, "/profiles", `{"name":"ada","email":"ada@example.com"}`)
	if status != http.StatusConflict {
		t.Fatalf("duplicate status = %d", status)
	}
	if e := decodeInto[errorBody](t, body); e.Error != apperrors.CodeAlreadyExists || e.Message == "" {
		t.Fatalf("error body = %+v", e)
	}

	status, body = s.do(t, http.MethodPatch, "/profiles/ada", `{"email":"lovelace@example.com"}`)
	if status != http.StatusOK {
		t.Fatalf("patch status = %d body = %s", status, body)
	}
	if got := decodeInto[service.ProfileView](t, body); got.Email != "lovelace@example.com" {
		t.Fatalf("patched = %+v", got)
	}

	status, body = s.do(t, http.MethodGet, "/profiles/nobody", "")
	if status != http.StatusNotFound {
		t.Fatalf("missing status = %d", status)
	}
	if e := decodeInto[errorBody](t, body); e.Error != apperrors.CodeNotFound {
		t.Fatalf("error body = %+v", e)
	}
}

func TestBadBodies(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{`{"name":`, `{"nickname":"ada"}`} {
		status, data := s.do(t, http.MethodPost, "/profiles", body)
		if status != http.StatusBadRequest {
			t.Fatalf("body %q status = %d", body, status)
		}
		if e := decodeInto[errorBody](t, data); e.Error != apperrors.CodeInvalidArgument {
			t.Fatalf("error body = %+v", e)
		}
	}
}

func TestAddressLifecycleAndRevert(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/profiles", `{"name":"ada","email":"ada@example.com"}`)

	status, body := s.do(t, http.MethodPost, "/profiles/ada/addresses", `{"label":"home","city":"Paris"}`)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", status, body)
	}
	home := decodeInto[service.AddressView](t, body)

	status, body = s.do(t, http.MethodPatch, "/profiles/ada/addresses/home", `{"city":"Lyon"}`)
	if status != http.StatusOK {
		t.Fatalf("patch status = %d body = %s", status, body)
	}
	msg, _ := s.outbox.Last()
	token := msg.Body[strings.LastIndex(msg.Body, "/revert/")+len("/revert/"):]

	status, body = s.do(t, http.MethodPost, "/revert/"+token, "")
	if status != http.StatusOK {
		t.Fatalf("revert status = %d body = %s", status, body)
	}
	reverted := decodeInto[service.RevertView](t, body)
	if reverted.Event != "address.city_reverted" || reverted.Address == nil || reverted.Address.City != "Paris" {
		t.Fatalf("reverted = %+v", reverted)
	}

	status, body = s.do(t, http.MethodPost, "/revert/"+token, "")
	if status != http.StatusGone {
		t.Fatalf("second revert status = %d", status)
	}
	if e := decodeInto[errorBody](t, body); e.Error != apperrors.CodeInvalidToken {
		t.Fatalf("error body = %+v", e)
	}

	status, body = s.do(t, http.MethodGet, "/profiles/ada/addresses", "")
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	list := decodeInto[map[string][]service.AddressView](t, body)
	if len(list["addresses"]) != 1 || list["addresses"][0].ID != home.ID {
		t.Fatalf("list = %+v", list)
	}

	if status, _ = s.do(t, http.MethodDelete, "/profiles/ada/addresses/home", ""); status != http.StatusOK {
		t.Fatalf("delete status = %d", status)
	}
	if status, _ = s.do(t, http.MethodGet, "/profiles/ada/addresses/home", ""); status != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/profiles", `{"name":"ada","email":"ada@example.com"}`)

	status, body := s.do(t, http.MethodGet, "/healthz", "")
	if status != http.StatusOK || !bytes.Contains(body, []byte(`"ok"`)) {
		t.Fatalf("healthz = %d %s", status, body)
	}
	status, body = s.do(t, http.MethodGet, "/metrics", "")
	if status != http.StatusOK {
		t.Fatalf("metrics status = %d", status)
	}
	if !bytes.Contains(body, []byte("addressbook_commands_total")) {
		t.Fatalf("metrics missing command counter:\n%s", body)
	}
}

type failingService struct{ Service }

func (failingService) GetProfile(context.Context, string) (service.ProfileView, error) {
	return service.ProfileView{}, errors.New("disk on fire")
}

func TestUnknownErrorsAreHidden(t *testing.T) {
	srv := httptest.NewServer(NewRouter(failingService{}, Options{}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/profiles/ada")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	e := decodeInto[errorBody](t, data)
	if e.Error != apperrors.CodeUnknown || strings.Contains(e.Message, "fire") {
		t.Fatalf("error body = %+v", e)
	}

	resp2, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("metrics without gatherer status = %d", resp2.StatusCode)
	}
}

type defectService struct{ Service }

func (defectService) GetProfile(context.Context, string) (service.ProfileView, error) {
	engine.Defect("get profile", errors.New("corrupt stream"))
	return service.ProfileView{}, nil
}

func TestDefectAbortsRequest(t *testing.T) {
	srv := httptest.NewUnstartedServer(NewRouter(defectService{}, Options{}))
	srv.Config.ErrorLog = log.New(io.Discard, "", 0)
	srv.Start()
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/profiles/ada")
	if err == nil {
		resp.Body.Close()
		t.Fatalf("status = %d, want aborted connection", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz after defect: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}
