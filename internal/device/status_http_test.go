package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeOpener struct {
	ok   bool
	urls []string
}

func (f *fakeOpener) OpenURL(u string) bool {
	f.urls = append(f.urls, u)
	return f.ok
}

func TestStatusHTTP(t *testing.T) {
	resetState()
	SetBuildInfo("v1", "sha1", "2024-01-01")
	SetDeviceInfo("dev1", "srv:8081", 480, 320, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := StartStatusServer(ctx, "127.0.0.1:0", &fakeOpener{}, nil)
	if err != nil {
		t.Fatalf("start server: %v", err)
	}
	setConnected(true)
	resp, err := http.Get("http://" + addr + "/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var st State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != "connected" || !st.ConnectedToServer || st.DeviceID != "dev1" || st.Connects != 1 {
		t.Fatalf("unexpected state: %+v", st)
	}
	respV, err := http.Get("http://" + addr + "/version")
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	defer func() { _ = respV.Body.Close() }()
	var vi VersionInfo
	if err := json.NewDecoder(respV.Body).Decode(&vi); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if vi.Version != "v1" || vi.BuildSHA != "sha1" {
		t.Fatalf("unexpected version info: %+v", vi)
	}
}

func TestOpenURLEndpoint(t *testing.T) {
	op := &fakeOpener{ok: true}
	h := NewStatusHandler(op, nil)
	post := func(body string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/open-url", strings.NewReader(body))
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := post(`{"url":"http://a"}`); code != http.StatusOK {
		t.Fatalf("ok: %d", code)
	}
	if code := post(`{"url":""}`); code != http.StatusBadRequest {
		t.Fatalf("empty: %d", code)
	}
	if code := post(`not json`); code != http.StatusBadRequest {
		t.Fatalf("garbage: %d", code)
	}
	op.ok = false
	if code := post(`{"url":"http://b"}`); code != http.StatusConflict {
		t.Fatalf("not sent: %d", code)
	}
	if len(op.urls) != 2 || op.urls[1] != "http://b" {
		t.Fatalf("opener calls %v", op.urls)
	}
}

func TestHealthzAndCORS(t *testing.T) {
	h := NewStatusHandler(&fakeOpener{}, []string{"http://panel.local"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://panel.local")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://panel.local" {
		t.Fatalf("cors header %q", got)
	}
}
