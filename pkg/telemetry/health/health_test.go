package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
			wantChecks: map[string]string{},
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"rules": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
			wantChecks: map[string]string{"rules": StatusOK},
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"rules":   func(context.Context) error { return errors.New("no configuration") },
				"watcher": func(context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			wantChecks: map[string]string{"rules": StatusUnhealthy, "watcher": StatusOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", status.Status, tt.wantStatus)
			}

			got := make(map[string]string, len(status.Checks))
			for name, result := range status.Checks {
				got[name] = result.Status
			}
			if !reflect.DeepEqual(got, tt.wantChecks) {
				t.Errorf("Checks = %v, want %v", got, tt.wantChecks)
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	status := c.CheckReadiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != "health check timeout" {
		t.Errorf("result = %+v, want timeout", result)
	}
}

func TestChecker_ListChecks(t *testing.T) {
	c := New(0)
	c.RegisterCheck("watcher", func(context.Context) error { return nil })
	c.RegisterCheck("rules", func(context.Context) error { return nil })
	c.RegisterCheck("rules", func(context.Context) error { return nil })

	if got, want := c.ListChecks(), []string{"rules", "watcher"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListChecks() = %v, want %v", got, want)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("rules", func(context.Context) error { return errors.New("no configuration") })

	mux := http.NewServeMux()
	Register(mux, c, VersionInfo{Version: "v1.2.3", GoVersion: "go1.25.0"})

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{http.MethodGet, "/health", http.StatusOK, StatusOK},
		{http.MethodGet, "/ready", http.StatusServiceUnavailable, StatusDegraded},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody == "" {
				return
			}

			var body HealthStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantBody)
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(VersionInfo{Version: "v1.2.3", Commit: "abc", GoVersion: "go1.25.0"}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if info.Version != "v1.2.3" || info.Commit != "abc" {
		t.Errorf("info = %+v", info)
	}
}

func TestBuildInfo(t *testing.T) {
	info := BuildInfo()
	if info.Version == "" {
		t.Error("expected a version")
	}
	if info.GoVersion == "" {
		t.Error("expected a Go version")
	}
}
