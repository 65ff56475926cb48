package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// wireServer is a hand-rolled daemon double recording what arrives on
// the wire.
type wireServer struct {
	t          *testing.T
	lastMethod string
	lastPath   string
	lastBody   map[string]interface{}
	respond    func(w http.ResponseWriter)
}

func (s *wireServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.lastMethod = r.Method
	s.lastPath = r.URL.Path
	s.lastBody = nil
	if r.Body != nil {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			s.lastBody = body
		}
	}
	s.respond(w)
}

func jsonBody(t *testing.T, v interface{}) func(w http.ResponseWriter) {
	t.Helper()
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			t.Errorf("Failed to encode response: %v", err)
		}
	}
}

func TestOpenCallsCarrySource(t *testing.T) {
	srv := &wireServer{t: t, respond: jsonBody(t, openDocumentResponse{ID: "d1", PagesCount: 3})}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	renderer := NewHTTPRenderer(ts.URL)
	ctx := context.Background()

	res, err := renderer.OpenPath(ctx, "/docs/a.pdf")
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if res.ID != "d1" || res.PagesCount != 3 {
		t.Errorf("Unexpected open result %+v", res)
	}
	if srv.lastMethod != http.MethodPost || srv.lastPath != "/api/documents" {
		t.Errorf("Unexpected wire call %s %s", srv.lastMethod, srv.lastPath)
	}
	if srv.lastBody["source"] != "file" || srv.lastBody["path"] != "/docs/a.pdf" {
		t.Errorf("Unexpected open body %v", srv.lastBody)
	}

	if _, err := renderer.OpenAsset(ctx, "manual.pdf"); err != nil {
		t.Fatalf("OpenAsset failed: %v", err)
	}
	if srv.lastBody["source"] != "asset" || srv.lastBody["name"] != "manual.pdf" {
		t.Errorf("Unexpected asset body %v", srv.lastBody)
	}

	if _, err := renderer.OpenData(ctx, []byte{1, 2, 3}); err != nil {
		t.Fatalf("OpenData failed: %v", err)
	}
	// []byte marshals as base64 on the wire.
	if srv.lastBody["source"] != "data" || srv.lastBody["data"] != "AQID" {
		t.Errorf("Unexpected data body %v", srv.lastBody)
	}
}

func TestOpenPagePath(t *testing.T) {
	srv := &wireServer{t: t, respond: jsonBody(t, openPageResponse{ID: "p2", Width: 600, Height: 800})}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	renderer := NewHTTPRenderer(ts.URL)

	res, err := renderer.OpenPage(context.Background(), "d1", 2)
	if err != nil {
		t.Fatalf("OpenPage failed: %v", err)
	}
	if res.ID != "p2" || res.Width != 600 || res.Height != 800 {
		t.Errorf("Unexpected page result %+v", res)
	}
	if srv.lastPath != "/api/documents/d1/pages" {
		t.Errorf("Unexpected path %s", srv.lastPath)
	}
	if srv.lastBody["page"] != float64(2) {
		t.Errorf("Unexpected body %v", srv.lastBody)
	}
}

func TestRenderPageWire(t *testing.T) {
	width := 300
	height := 400
	srv := &wireServer{t: t, respond: jsonBody(t, renderResponse{
		Rendered: true, Width: &width, Height: &height, Data: []byte("payload"),
	})}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	renderer := NewHTTPRenderer(ts.URL)

	res, err := renderer.RenderPage(context.Background(), RenderRequest{
		PageID: "p2", Width: 300, Height: 400, Format: 1,
		Background: "#00FFFFFF", Quality: 90,
		Crop: true, CropX: 10, CropY: 20, CropWidth: 30, CropHeight: 40,
	})
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if res == nil || *res.Width != 300 || *res.Height != 400 || !bytes.Equal(res.Data, []byte("payload")) {
		t.Fatalf("Unexpected render result %+v", res)
	}
	if srv.lastPath != "/api/pages/p2/render" {
		t.Errorf("Unexpected path %s", srv.lastPath)
	}
	for key, want := range map[string]interface{}{
		"format":     float64(1),
		"background": "#00FFFFFF",
		"quality":    float64(90),
		"crop":       true,
		"cropX":      float64(10),
		"cropY":      float64(20),
		"cropWidth":  float64(30),
		"cropHeight": float64(40),
	} {
		if srv.lastBody[key] != want {
			t.Errorf("Wire field %s = %v, want %v", key, srv.lastBody[key], want)
		}
	}
}

func TestRenderPageNonResult(t *testing.T) {
	srv := &wireServer{t: t, respond: jsonBody(t, renderResponse{Rendered: false})}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	renderer := NewHTTPRenderer(ts.URL)

	res, err := renderer.RenderPage(context.Background(), RenderRequest{PageID: "p1"})
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if res != nil {
		t.Error("Expected nil result for rendered=false")
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := &wireServer{t: t, respond: jsonBody(t, openDocumentResponse{Error: "engine exploded"})}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	renderer := NewHTTPRenderer(ts.URL)

	if _, err := renderer.OpenPath(context.Background(), "a.pdf"); err == nil {
		t.Error("Expected the error envelope to surface as an error")
	}
}

func TestErrorStatus(t *testing.T) {
	srv := &wireServer{t: t, respond: func(w http.ResponseWriter) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	renderer := NewHTTPRenderer(ts.URL)

	if _, err := renderer.OpenPath(context.Background(), "a.pdf"); err == nil {
		t.Error("Expected a non-200 status to surface as an error")
	}
}

func TestCloseCallsUseDelete(t *testing.T) {
	srv := &wireServer{t: t, respond: jsonBody(t, ackResponse{})}
	ts := httptest.NewServer(srv)
	defer ts.Close()
	renderer := NewHTTPRenderer(ts.URL)
	ctx := context.Background()

	if err := renderer.CloseDocument(ctx, "d1"); err != nil {
		t.Fatalf("CloseDocument failed: %v", err)
	}
	if srv.lastMethod != http.MethodDelete || srv.lastPath != "/api/documents/d1" {
		t.Errorf("Unexpected wire call %s %s", srv.lastMethod, srv.lastPath)
	}

	if err := renderer.ClosePage(ctx, "p1"); err != nil {
		t.Fatalf("ClosePage failed: %v", err)
	}
	if srv.lastMethod != http.MethodDelete || srv.lastPath != "/api/pages/p1" {
		t.Errorf("Unexpected wire call %s %s", srv.lastMethod, srv.lastPath)
	}
}
