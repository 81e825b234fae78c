/*
handlers_test.go - HTTP surface over the simulation engines
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice/comp-engine/sim"
	"github.com/lattice/comp-engine/store/sqlite"
)

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return h, srv
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// pollJob polls the job endpoint until it reaches a terminal status.
func pollJob(t *testing.T, srv *httptest.Server, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		code, job := doJSON(t, http.MethodGet, srv.URL+"/api/jobs/"+id, nil)
		require.Equal(t, http.StatusOK, code)
		if JobStatus(job["status"].(string)).Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never finished", id)
	return nil
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)

	code, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestGetDefaultConfigs(t *testing.T) {
	_, srv := newTestServer(t)

	code, pu := doJSON(t, http.MethodGet, srv.URL+"/api/powerup/config", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10000, pu["total_users"])
	assert.Contains(t, pu, "powerup_matrix")

	code, db := doJSON(t, http.MethodGet, srv.URL+"/api/directbonus/config", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0.07, db["usdn_l1_rate"])

	code, presets := doJSON(t, http.MethodGet, srv.URL+"/api/powerup/presets", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, presets, "moderate")
}

func TestRunPowerUp_Lifecycle(t *testing.T) {
	// GIVEN: A small PowerUp configuration
	// WHEN: A run is started and polled to completion
	// THEN: The job completes with the simulation result attached

	_, srv := newTestServer(t)

	code, job := doJSON(t, http.MethodPost, srv.URL+"/api/powerup/run",
		map[string]any{"total_users": 300, "max_depth": 5, "seed": 1})
	require.Equal(t, http.StatusAccepted, code)
	require.NotEmpty(t, job["id"])
	assert.Equal(t, "powerup", job["program"])

	done := pollJob(t, srv, job["id"].(string))
	require.Equal(t, string(JobCompleted), done["status"])
	assert.EqualValues(t, 100, done["progress"])

	result := done["result"].(map[string]any)
	assert.EqualValues(t, 300, result["total_users"])
	assert.Greater(t, result["total_sales"].(float64), 0.0)

	// The program status endpoint reports the same job
	code, status := doJSON(t, http.MethodGet, srv.URL+"/api/powerup/status", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, job["id"], status["id"])
}

func TestRunPowerUp_RejectsInvalidConfig(t *testing.T) {
	h, srv := newTestServer(t)

	code, body := doJSON(t, http.MethodPost, srv.URL+"/api/powerup/run",
		map[string]any{"total_users": -5})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["details"], "total_users")
	assert.False(t, h.Jobs.Busy(), "no job was started")
}

func TestRunPowerUp_RejectsWhileBusy(t *testing.T) {
	// GIVEN: A job blocked mid-flight
	// WHEN: Another run is posted
	// THEN: It is rejected with 409

	h, srv := newTestServer(t)
	release := make(chan struct{})
	blocked, err := h.Jobs.Start(programPowerUp, func(hooks sim.Hooks) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	code, body := doJSON(t, http.MethodPost, srv.URL+"/api/powerup/run",
		map[string]any{"total_users": 300, "max_depth": 5})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body["error"], "already running")

	close(release)
	pollJob(t, srv, blocked.ID)
}

func TestCancelEndpoints(t *testing.T) {
	// GIVEN: A cooperative job polling its cancellation hook
	// WHEN: The program cancel endpoint is posted
	// THEN: The job lands in cancelled with no result

	h, srv := newTestServer(t)
	job, err := h.Jobs.Start(programPowerUp, func(hooks sim.Hooks) (any, error) {
		for {
			if err := hooks.Step("Looping", 10); err != nil {
				return nil, err
			}
			time.Sleep(time.Millisecond)
		}
	})
	require.NoError(t, err)

	code, cancelled := doJSON(t, http.MethodPost, srv.URL+"/api/powerup/cancel", nil)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, job.ID, cancelled["id"])

	done := pollJob(t, srv, job.ID)
	assert.Equal(t, string(JobCancelled), done["status"])
	assert.NotContains(t, done, "result")
}

func TestJobEndpoints_UnknownID(t *testing.T) {
	_, srv := newTestServer(t)

	code, _ := doJSON(t, http.MethodGet, srv.URL+"/api/jobs/"+"00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/jobs/nope/cancel", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, http.MethodGet, srv.URL+"/api/powerup/status", nil)
	assert.Equal(t, http.StatusNotFound, code, "no run yet")
}

func TestRunDirectBonus_Lifecycle(t *testing.T) {
	_, srv := newTestServer(t)

	code, job := doJSON(t, http.MethodPost, srv.URL+"/api/directbonus/run",
		map[string]any{"hierarchy": map[string]any{"total_users": 300, "max_depth": 5, "seed": 2}})
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "directbonus", job["program"])

	done := pollJob(t, srv, job["id"].(string))
	require.Equal(t, string(JobCompleted), done["status"])

	result := done["result"].(map[string]any)
	assert.EqualValues(t, 300, result["total_users"])
	assert.Len(t, result["months"].([]any), 12)
}

func TestRunDirectBonus_ReusesPreviousTree(t *testing.T) {
	// GIVEN: A completed PowerUp run that generated a hierarchy
	// WHEN: A Direct Bonus run is posted without hierarchy parameters
	// THEN: It reuses the held tree instead of generating a new one

	_, srv := newTestServer(t)

	_, job := doJSON(t, http.MethodPost, srv.URL+"/api/powerup/run",
		map[string]any{"total_users": 300, "max_depth": 5, "seed": 1})
	pollJob(t, srv, job["id"].(string))

	code, dbJob := doJSON(t, http.MethodPost, srv.URL+"/api/directbonus/run", map[string]any{})
	require.Equal(t, http.StatusAccepted, code)
	done := pollJob(t, srv, dbJob["id"].(string))
	require.Equal(t, string(JobCompleted), done["status"])

	result := done["result"].(map[string]any)
	assert.EqualValues(t, 300, result["total_users"], "ran on the PowerUp run's tree")

	code, status := doJSON(t, http.MethodGet, srv.URL+"/api/hierarchy", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, status["cached"].([]any), 1, "no second hierarchy was generated")
}

func TestHierarchyStatusAndClear(t *testing.T) {
	_, srv := newTestServer(t)

	code, status := doJSON(t, http.MethodGet, srv.URL+"/api/hierarchy", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, status["cached"])
	assert.NotContains(t, status, "in_memory")

	_, job := doJSON(t, http.MethodPost, srv.URL+"/api/powerup/run",
		map[string]any{"total_users": 300, "max_depth": 5, "seed": 7})
	pollJob(t, srv, job["id"].(string))

	code, status = doJSON(t, http.MethodGet, srv.URL+"/api/hierarchy", nil)
	require.Equal(t, http.StatusOK, code)
	cached := status["cached"].([]any)
	require.Len(t, cached, 1)
	assert.EqualValues(t, 300, cached[0].(map[string]any)["total_users"])
	inMemory := status["in_memory"].(map[string]any)
	assert.EqualValues(t, 7, inMemory["seed"])

	code, body := doJSON(t, http.MethodDelete, srv.URL+"/api/hierarchy", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["cleared"])

	code, status = doJSON(t, http.MethodGet, srv.URL+"/api/hierarchy", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, status["cached"])
	assert.NotContains(t, status, "in_memory")
}

func TestClearHierarchy_RejectedWhileRunning(t *testing.T) {
	h, srv := newTestServer(t)
	release := make(chan struct{})
	blocked, err := h.Jobs.Start(programPowerUp, func(hooks sim.Hooks) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	code, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/hierarchy", nil)
	assert.Equal(t, http.StatusConflict, code)

	close(release)
	pollJob(t, srv, blocked.ID)
}

func TestCachedRunMatchesFreshRun(t *testing.T) {
	// GIVEN: Two servers, one of which already cached the hierarchy
	// WHEN: The same configuration runs on both
	// THEN: Results are identical (the cache never changes the numbers)

	cfg := map[string]any{"total_users": 400, "max_depth": 6, "seed": 11}

	run := func(srv *httptest.Server) map[string]any {
		_, job := doJSON(t, http.MethodPost, srv.URL+"/api/powerup/run", cfg)
		done := pollJob(t, srv, job["id"].(string))
		require.Equal(t, string(JobCompleted), done["status"])
		return done["result"].(map[string]any)
	}

	_, srvA := newTestServer(t)
	fresh := run(srvA)

	hB, srvB := newTestServer(t)
	run(srvB) // populates srvB's cache

	// Drop the in-memory tree so the second run must go through SQLite.
	hB.mu.Lock()
	hB.lastTree = nil
	hB.mu.Unlock()

	cached := run(srvB)
	assert.Equal(t, fresh["total_earnings"], cached["total_earnings"])
	assert.Equal(t, fresh["total_sales"], cached["total_sales"])
	assert.Equal(t, fresh["rank_distribution"], cached["rank_distribution"])
}
