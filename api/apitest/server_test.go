package apitest

import (
	"context"
	"net/http"
	"testing"

	"github.com/kbukum/wavechat/component"
	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/httpclient"
	"github.com/kbukum/wavechat/testutil"
)

func post(t *testing.T, srv *Server, path string, body *httpclient.MultipartBody) (*httpclient.Response, error) {
	t.Helper()
	hc, err := httpclient.New(httpclient.Config{BaseURL: srv.URL()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return hc.Do(context.Background(), httpclient.Request{Method: http.MethodPost, Path: path, Body: body})
}

func TestServerLifecycle(t *testing.T) {
	srv := NewServer()
	if h := srv.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	testutil.T(t).Setup(srv)
	if srv.URL() == "" {
		t.Fatal("expected URL after start")
	}
	if h := srv.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
}

func TestServerRecordsWireOrder(t *testing.T) {
	srv := NewServer()
	testutil.T(t).Setup(srv)

	body := &httpclient.MultipartBody{
		Files: []httpclient.FileField{{FieldName: "file", FileName: "a.mp3", ContentType: "audio/mpeg", Data: []byte("ID3")}},
	}
	body.Add("startSec", "0").Add("endSec", "2.5")
	if _, err := post(t, srv, "/api/spectrogram", body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := srv.RequestsTo("/api/spectrogram")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	got := reqs[0]
	names := got.Names()
	if len(names) != 3 || names[0] != "file" || names[1] != "startSec" || names[2] != "endSec" {
		t.Errorf("unexpected names %v", names)
	}
	if got.File == nil || got.File.Name != "a.mp3" || string(got.File.Data) != "ID3" {
		t.Errorf("unexpected file %+v", got.File)
	}
	if v, ok := got.Value("endSec"); !ok || v != "2.5" {
		t.Errorf("expected endSec 2.5, got %q", v)
	}
	if _, ok := got.Value("missing"); ok {
		t.Error("expected missing field to be absent")
	}
}

func TestServerScriptedAnswers(t *testing.T) {
	srv := NewServer()
	testutil.T(t).Setup(srv)

	srv.Fail("/api/chat", http.StatusTeapot, `{"detail":"short and stout"}`)
	_, err := post(t, srv, "/api/chat", (&httpclient.MultipartBody{}).Add("sessionId", "x").Add("message", "hi"))
	if errors.Status(err) != http.StatusTeapot || errors.Detail(err) != "short and stout" {
		t.Fatalf("expected scripted failure, got %v", err)
	}

	srv.On("/api/chat", func(Request) *Response { return nil })
	_, err = post(t, srv, "/api/chat", (&httpclient.MultipartBody{}).Add("sessionId", "x").Add("message", "hi"))
	if errors.Status(err) != http.StatusNotFound {
		t.Fatalf("expected fallback 404 for unknown session, got %v", err)
	}

	srv.AddSession("x")
	resp, err := post(t, srv, "/api/chat", (&httpclient.MultipartBody{}).Add("sessionId", "x").Add("message", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != `{"reply":"You said: hi"}` {
		t.Errorf("unexpected body %s", resp.Body)
	}

	srv.Reset()
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("expected no requests after reset, got %d", n)
	}
	if _, err := post(t, srv, "/api/chat", (&httpclient.MultipartBody{}).Add("sessionId", "x").Add("message", "hi")); errors.Status(err) != http.StatusNotFound {
		t.Errorf("expected sessions forgotten after reset, got %v", err)
	}
}

func TestServerAnalyzeRequiresModel(t *testing.T) {
	srv := NewServer()
	testutil.T(t).Setup(srv)

	body := &httpclient.MultipartBody{
		Files: []httpclient.FileField{{FieldName: "file", FileName: "a.wav", Data: []byte("RIFF")}},
	}
	body.Add("startSec", "0").Add("endSec", "1")
	_, err := post(t, srv, "/api/analyze", body)
	if errors.Status(err) != http.StatusUnprocessableEntity || errors.Detail(err) != "modelId is required" {
		t.Fatalf("expected 422, got %v", err)
	}
}
