package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/capstack/internal/database"
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/aristath/capstack/internal/modules/scenarios"
	"github.com/aristath/capstack/internal/modules/snapshots"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "capstack.db"),
		Profile: database.ProfileCache,
		Name:    "test",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	runner := pipeline.NewRunner(log)
	sim := montecarlo.NewSimulator(runner, log, montecarlo.WithWorkers(2))
	svc := scenarios.NewService(scenarios.NewRepository(db.Conn(), log), runner, sim, nil, log)

	r := chi.NewRouter()
	NewHandler(svc, scenarios.NewLoader(log), log).RegisterRoutes(r)
	return r
}

func hotelYAML(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", "hotel.yaml"))
	require.NoError(t, err)
	return string(data)
}

func do(router http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createHotel(t *testing.T, router http.Handler) scenarios.StoredScenario {
	t.Helper()
	w := do(router, http.MethodPost, "/scenarios", "application/yaml", hotelYAML(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored scenarios.StoredScenario
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	require.NotEmpty(t, stored.ID)
	return stored
}

func TestScenarioCRUD(t *testing.T) {
	router := setupRouter(t)
	stored := createHotel(t, router)
	assert.Equal(t, "harbour-hotel", stored.Scenario.Name)

	w := do(router, http.MethodGet, "/scenarios", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Scenarios []scenarios.ScenarioSummary `json:"scenarios"`
		Count     int                         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, stored.ID, list.Scenarios[0].ID)

	updated := strings.Replace(hotelYAML(t), "name: harbour-hotel", "name: harbour-hotel-v2", 1)
	w = do(router, http.MethodPut, "/scenarios/"+stored.ID, "application/yaml", updated)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, http.MethodGet, "/scenarios/"+stored.ID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got scenarios.StoredScenario
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "harbour-hotel-v2", got.Scenario.Name)

	w = do(router, http.MethodDelete, "/scenarios/"+stored.ID, "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/scenarios/"+stored.ID, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreate_Invalid(t *testing.T) {
	router := setupRouter(t)

	w := do(router, http.MethodPost, "/scenarios", "application/json", `{"inputs": {"unleveredFcf": []}}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error domain.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.CodeValidationFailed, body.Error.Code)
	assert.NotEmpty(t, body.Error.Issues)
}

func TestRunStoredScenario(t *testing.T) {
	router := setupRouter(t)
	stored := createHotel(t, router)

	w := do(router, http.MethodPost, "/scenarios/"+stored.ID+"/run", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var outcome scenarios.RunOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, snapshots.KindPipeline, outcome.Record.Kind)
	require.NotNil(t, outcome.Snapshot.Pipeline)

	w = do(router, http.MethodPost, "/scenarios/"+stored.ID+"/run?montecarlo=true&iterations=4", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, snapshots.KindMonteCarlo, outcome.Record.Kind)
	require.NotNil(t, outcome.Snapshot.MonteCarlo)
	assert.Equal(t, 4, outcome.Snapshot.MonteCarlo.Completed)

	w = do(router, http.MethodGet, "/scenarios/"+stored.ID+"/runs", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	assert.Equal(t, 2, runs.Count)
}

func TestRun_BadRequests(t *testing.T) {
	router := setupRouter(t)
	stored := createHotel(t, router)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown scenario", "/scenarios/missing/run", http.StatusNotFound},
		{"bad flag", "/scenarios/" + stored.ID + "/run?montecarlo=maybe", http.StatusBadRequest},
		{"negative iterations", "/scenarios/" + stored.ID + "/run?montecarlo=1&iterations=-2", http.StatusBadRequest},
		{"archive not configured", "/scenarios/" + stored.ID + "/run?archive=true", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, tt.path, "", "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := do(router, http.MethodGet, "/scenarios/missing/runs", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
