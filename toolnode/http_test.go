package toolnode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gilad-rubin/hypergraph-sub004/node"
)

func TestHTTPToolDecodesJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["a"].(float64) != 1 || body["b"].(float64) != 2 {
			t.Errorf("unexpected request body: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sum": 3}`))
	}))
	defer srv.Close()

	tool, err := NewHTTPTool("adder", srv.URL, []string{"a", "b"})
	if err != nil {
		t.Fatalf("NewHTTPTool: %v", err)
	}

	res, err := tool.Call(context.Background(), node.Values{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	m, ok := res.Outputs["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected decoded map, got %T", res.Outputs["result"])
	}
	if m["sum"].(float64) != 3 {
		t.Errorf("expected sum=3, got %v", m["sum"])
	}
}

func TestHTTPToolCustomOutputAndMethod(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"ok"`))
	}))
	defer srv.Close()

	tool, err := NewHTTPTool("pinger", srv.URL, []string{}, WithMethod(http.MethodGet), WithResultOutput("status"))
	if err != nil {
		t.Fatalf("NewHTTPTool: %v", err)
	}

	res, err := tool.Call(context.Background(), node.Values{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("expected GET, got %s", gotMethod)
	}
	if res.Outputs["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", res.Outputs["status"])
	}
}

func TestHTTPToolErrorStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	tool, err := NewHTTPTool("failing", srv.URL, []string{})
	if err != nil {
		t.Fatalf("NewHTTPTool: %v", err)
	}

	if _, err := tool.Call(context.Background(), node.Values{}); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}
