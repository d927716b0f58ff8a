package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/config"
	"github.com/hitoshi/tutorhub/internal/repository/memory"
)

func TestRun_ServeWithUnreachableDatabase_ReturnsError(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) should fail when the database is unreachable")
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error = %v, want database related error", err)
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("JWT_SECRET", "")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"serve"}); err == nil {
		t.Fatal("Run with missing JWT_SECRET should return error")
	}
}

func TestRun_MigrateRejectsUnknownAction(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate", "sideways"})
	if err == nil || !strings.Contains(err.Error(), "sideways") {
		t.Errorf("Run(migrate sideways) error = %v, want unknown action error", err)
	}
}

func TestRunMigrate_RequiresPostgres(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageMemory}
	if err := runMigrate(cfg, MigrateUp, zap.NewNop()); err == nil {
		t.Fatal("runMigrate with memory storage should return error")
	}
}

func TestOpenGateway_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageMemory}
	gw, closeFn, err := openGateway(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("openGateway() error = %v", err)
	}
	defer closeFn()

	if err := gw.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestBuildRouter_ServesHealthAndMetrics(t *testing.T) {
	cfg := &config.Config{
		Storage:           config.StorageMemory,
		JWTSecret:         "test-jwt-secret",
		JWTTTL:            time.Hour,
		BcryptCost:        4,
		RateLimitGeneral:  600,
		RateLimitWrite:    600,
		DefaultPageLimit:  10,
		MaxPageLimit:      100,
		CORSAllowedOrigin: "http://localhost:3000",
	}
	router, cleanup := buildRouter(cfg, memory.New(), prometheus.NewRegistry(), zap.NewNop())
	defer cleanup()

	get := func(path string) (int, string) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		body, _ := io.ReadAll(w.Body)
		return w.Code, string(body)
	}

	if code, body := get("/health"); code != http.StatusOK {
		t.Errorf("/health status = %d, body = %s", code, body)
	}

	code, body := get("/metrics")
	if code != http.StatusOK {
		t.Fatalf("/metrics status = %d", code)
	}
	if !strings.Contains(body, "tutorhub_slots_created_total") {
		t.Errorf("/metrics does not expose tutorhub metrics:\n%s", body)
	}

	if code, _ := get("/teachers"); code != http.StatusOK {
		t.Errorf("/teachers status = %d, want %d", code, http.StatusOK)
	}
}
