package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/eval-console/internal/clock"
	"github.com/ashwinyue/eval-console/internal/config"
	"github.com/ashwinyue/eval-console/internal/handler"
	"github.com/ashwinyue/eval-console/internal/model"
	"github.com/ashwinyue/eval-console/internal/navigation"
	"github.com/ashwinyue/eval-console/internal/observability"
	"github.com/ashwinyue/eval-console/internal/repository"
	"github.com/ashwinyue/eval-console/internal/router"
	"github.com/ashwinyue/eval-console/internal/service"
	"github.com/ashwinyue/eval-console/internal/service/evaluation"
	"github.com/ashwinyue/eval-console/internal/service/file"
	"github.com/ashwinyue/eval-console/internal/service/run"
	"github.com/ashwinyue/eval-console/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Code     int             `json:"code"`
	Msg      string          `json:"msg"`
	Problems []string        `json:"problems"`
}

type testServer struct {
	engine *gin.Engine
	clock  *clock.Fake
	svc    *service.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Simulation.ResultLoadDelayMs = 0

	local, err := file.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	c := testutil.NewClock()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	repos := repository.NewRepositories(nil, repository.NewMemorySnapshotStore())

	svc, err := service.NewServices(context.Background(), repos, cfg, service.Options{
		Clock:   c,
		Metrics: metrics,
		Files:   file.NewService(local, file.StorageTypeLocal),
		Random:  func() float64 { return 0.99 },
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	engine := router.SetupRouter(handler.NewHandlers(svc), router.Options{
		Metrics:      metrics,
		Gatherer:     reg,
		AllowOrigins: []string{"*"},
	})
	return &testServer{engine: engine, clock: c, svc: svc}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.Request(t, ts.engine, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAgents(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/agents", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	testutil.Decode(t, rec, &env)
	var agents []model.AgentSummary
	require.NoError(t, json.Unmarshal(env.Data, &agents))
	require.Len(t, agents, 3)
	for _, a := range agents {
		assert.NotNil(t, a.LastRun, a.ID)
	}
}

func TestAgentRunsAndTrend(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/agents/hr_copilot/runs?page=1&size=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	testutil.Decode(t, rec, &env)
	var page handler.PaginationData
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 5, page.PageSize)
	assert.Positive(t, page.Total)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/agents/hr_copilot/trend?metrics=Coherence", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"has_data":true`)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/agents/hr_copilot/trend?metrics=Bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/agents/ghost/runs", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/setup/proceed", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env envelope
	testutil.Decode(t, rec, &env)
	assert.Equal(t, []string{"Please select an agent."}, env.Problems)

	rec = testutil.JSON(t, ts.engine, http.MethodPut, "/api/v1/setup", map[string]interface{}{
		"selected_agent_ids": []string{model.AgentPharosUDX},
		"evaluation_type":    "POINTWISE",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/setup/proceed", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	testutil.Decode(t, rec, &env)
	assert.Equal(t, []string{"Select a Region for Pharos UDX."}, env.Problems)

	rec = testutil.JSON(t, ts.engine, http.MethodPut, "/api/v1/setup", map[string]interface{}{
		"region": "Universal Beijing Resort",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/setup/proceed", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var proceed struct {
		Params navigation.Params `json:"params"`
		URL    string            `json:"url"`
	}
	testutil.Decode(t, rec, &env)
	require.NoError(t, json.Unmarshal(env.Data, &proceed))
	assert.Equal(t, "Universal Beijing Resort", proceed.Params.Region)
	assert.Equal(t, navigation.SetupPath, proceed.Params.BackRef)
	assert.True(t, strings.HasPrefix(proceed.URL, navigation.GroundTruthPath+"?"))

	rec = testutil.JSON(t, ts.engine, http.MethodPut, "/api/v1/setup", map[string]interface{}{
		"region": "Atlantis",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroundTruthUploadFlow(t *testing.T) {
	ts := newTestServer(t)
	csv := "Question,Answer,Category\nq1,a1,c1\nq2,a2,c2\n"

	body, ct := testutil.Multipart(t, nil, testutil.Upload{Field: "file", FileName: "qa.csv", Content: csv})
	rec := testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/ground-truths/upload/inspect", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"headers":["Question","Answer","Category"]`)

	body, ct = testutil.Multipart(t, map[string]string{
		"name":       "Mapped QA",
		"tags":       "qa, mapped",
		"schema_map": `{"question":"Question","ground_truth":"Answer","category":"Category"}`,
	}, testutil.Upload{Field: "file", FileName: "qa.csv", Content: csv})
	rec = testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/ground-truths/upload", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	testutil.Decode(t, rec, &env)
	var gt model.GroundTruth
	require.NoError(t, json.Unmarshal(env.Data, &gt))
	assert.Equal(t, 2, gt.RowsCount)
	assert.Equal(t, []string{"qa", "mapped"}, gt.Tags)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/ground-truths/selection", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), gt.ID)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/ground-truths?tag=mapped", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	// 缺少必填映射
	body, ct = testutil.Multipart(t, map[string]string{
		"schema_map": `{"question":"Question"}`,
	}, testutil.Upload{Field: "file", FileName: "qa.csv", Content: csv})
	rec = testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/ground-truths/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = testutil.Multipart(t, map[string]string{
		"schema_map": `{"question":"Question","ground_truth":"unmapped"}`,
	}, testutil.Upload{Field: "file", FileName: "qa.csv", Content: csv})
	rec = testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/ground-truths/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ground_truth")

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/ground-truths", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":6`)

	body, ct = testutil.Multipart(t, map[string]string{"schema_map": `[1]`},
		testutil.Upload{Field: "file", FileName: "qa.csv", Content: csv})
	rec = testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/ground-truths/upload", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroundTruthEditDuplicateDelete(t *testing.T) {
	ts := newTestServer(t)

	body, ct := testutil.Multipart(t, map[string]string{
		"name": "Legal Contract Analysis",
		"rows": "10",
	})
	rec := testutil.Request(t, ts.engine, http.MethodPut, "/api/v1/ground-truths/hr-qa-basic", body, ct)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body, ct = testutil.Multipart(t, map[string]string{"name": "HR Renamed", "rows": "ten"})
	rec = testutil.Request(t, ts.engine, http.MethodPut, "/api/v1/ground-truths/hr-qa-basic", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = testutil.Multipart(t, map[string]string{"name": "HR Renamed", "rows": "12"})
	rec = testutil.Request(t, ts.engine, http.MethodPut, "/api/v1/ground-truths/hr-qa-basic", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rows_count":12`)

	rec = testutil.Request(t, ts.engine, http.MethodPost, "/api/v1/ground-truths/hr-qa-basic/duplicate", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "HR Renamed Copy")

	rec = testutil.Request(t, ts.engine, http.MethodDelete, "/api/v1/ground-truths/hr-qa-basic", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/ground-truths/hr-qa-basic", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluationLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.JSON(t, ts.engine, http.MethodPost, "/api/v1/evaluations", evaluation.StartRequest{
		Agent: model.AgentHRCopilot, Type: "POINTWISE",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, "no dataset selected")

	rec = testutil.JSON(t, ts.engine, http.MethodPut, "/api/v1/ground-truths/selection", map[string]string{"id": "hr-qa-basic"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.JSON(t, ts.engine, http.MethodPost, "/api/v1/evaluations", evaluation.StartRequest{
		Agent: model.AgentHRCopilot, Type: "POINTWISE",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	testutil.Decode(t, rec, &env)
	var started evaluation.Started
	require.NoError(t, json.Unmarshal(env.Data, &started))
	id := started.Task.ID

	ts.clock.Advance(30 * time.Second)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/evaluations/"+id+"/progress", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var progress evaluation.Progress
	testutil.Decode(t, rec, &env)
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, model.EvaluationStatusCompleted, progress.Status)
	assert.Equal(t, 100.0, progress.Progress)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/evaluations/unknown/progress", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 缺少导航参数时回到配置页
	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/evaluations/results?id="+id, nil, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, navigation.SetupPath, rec.Header().Get("Location"))

	q := started.Params.Values().Encode()
	rec = testutil.Request(t, ts.engine, http.MethodGet,
		"/api/v1/evaluations/results?"+q+"&metric=Coherence&view=fail", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view handler.ResultView
	testutil.Decode(t, rec, &env)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, id, view.Result.EvaluationID)
	assert.Equal(t, "Coherence", view.Table.Metric)
	for _, row := range view.Rows {
		assert.Equal(t, "0", row.Score(model.MetricCoherence))
	}

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/evaluations/results?"+q+"&metric=Bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/evaluations/results/export?"+q, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="evaluation_`+id+`_detailed.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Question,Agent Response,Ground Truth,"))
}

func TestEvaluationCancel(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.JSON(t, ts.engine, http.MethodPost, "/api/v1/evaluations", evaluation.StartRequest{
		Agent: model.AgentLegalCopilot, Type: "PAIRWISE", GroundTruthID: "legal-contracts",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var env envelope
	testutil.Decode(t, rec, &env)
	var started evaluation.Started
	require.NoError(t, json.Unmarshal(env.Data, &started))

	rec = testutil.Request(t, ts.engine, http.MethodDelete, "/api/v1/evaluations/"+started.Task.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	assert.Zero(t, ts.clock.Pending())
}

func TestLatestResult(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/agents/pharos_udx/latest-result", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"evaluation_id":"history_pharos_udx_`)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/agents/ghost/latest-result", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunToggle(t *testing.T) {
	ts := newTestServer(t)

	rec := testutil.JSON(t, ts.engine, http.MethodPost, "/api/v1/runs/hr_copilot-1/experiment", map[string]bool{"is_experiment": true})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var env envelope
	testutil.Decode(t, rec, &env)
	var tr run.Transition
	require.NoError(t, json.Unmarshal(env.Data, &tr))
	assert.Equal(t, run.StatePending, tr.State)

	ts.clock.Advance(time.Second)

	rec = testutil.Request(t, ts.engine, http.MethodGet, "/api/v1/runs/toggles/"+tr.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"committed"`)

	rec = testutil.JSON(t, ts.engine, http.MethodPost, "/api/v1/runs/nope/experiment", map[string]bool{"is_experiment": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.JSON(t, ts.engine, http.MethodPost, "/api/v1/runs/hr_copilot-1/experiment", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
