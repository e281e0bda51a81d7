package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orchestrix/jobqueue/internal/metrics"
	"github.com/orchestrix/jobqueue/internal/store"
)

type fakeStore struct {
	mu      sync.Mutex
	jobs    []store.JobRecord
	nextID  int64
	bulkErr error
}

func (f *fakeStore) Insert(ctx context.Context, job store.NewJob) (store.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec := store.JobRecord{ID: f.nextID, Name: job.Name, Status: store.StatusNew}
	f.jobs = append(f.jobs, rec)
	return rec, nil
}

func (f *fakeStore) BulkInsert(ctx context.Context, jobs []store.NewJob) (int, error) {
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range jobs {
		f.nextID++
		f.jobs = append(f.jobs, store.JobRecord{ID: f.nextID, Name: j.Name, Status: store.StatusNew})
	}
	return len(jobs), nil
}

func (f *fakeStore) ClaimNext(ctx context.Context) (store.JobRecord, bool, error) {
	return store.JobRecord{}, false, nil
}

func (f *fakeStore) SetStatus(ctx context.Context, id int64, terminal store.Status) error {
	return nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

// testMetrics is shared across every test in this package: Prometheus
// panics if the same collector name is registered twice.
var (
	testMetrics     *metrics.Metrics
	testMetricsOnce sync.Once
)

func getTestMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.New()
	})
	return testMetrics
}

func newTestHandler() (*Handler, *fakeStore) {
	fs := &fakeStore{}
	h := NewHandler(fs, getTestMetrics(), &fakePinger{})
	return h, fs
}

func TestCreateJob_Valid(t *testing.T) {
	h, fs := newTestHandler()
	body := bytes.NewBufferString(`{"name":"build"}`)
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp JobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "build", resp.Name)
	require.Equal(t, "new", resp.Status)
	require.Len(t, fs.jobs, 1)
}

func TestCreateJob_NameTooShort(t *testing.T) {
	h, fs := newTestHandler()
	body := bytes.NewBufferString(`{"name":"ab"}`)
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, fs.jobs)
}

func TestCreateJob_NameTooLong(t *testing.T) {
	h, _ := newTestHandler()
	body := bytes.NewBufferString(`{"name":"waytoolongname"}`)
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_RejectsNonNewStatus(t *testing.T) {
	h, _ := newTestHandler()
	body := bytes.NewBufferString(`{"name":"build","status":"success"}`)
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJob_MalformedJSON(t *testing.T) {
	h, _ := newTestHandler()
	body := bytes.NewBufferString(`{"name":`)
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	rec := httptest.NewRecorder()

	h.CreateJob(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, payload string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "jobs.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateJobsBulk_AllValid(t *testing.T) {
	h, fs := newTestHandler()
	buf, contentType := multipartBody(t, `[{"name":"alpha"},{"name":"bravo"}]`)
	req := httptest.NewRequest(http.MethodPost, "/jobs/bulk", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateJobsBulk(rec, req, 1<<20)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp BulkJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 2, resp.Created)
	require.Empty(t, resp.Errors)
	require.Len(t, fs.jobs, 2)
}

func TestCreateJobsBulk_PartialRejection(t *testing.T) {
	h, fs := newTestHandler()
	buf, contentType := multipartBody(t, `[{"name":"alpha"},{"name":"x"}]`)
	req := httptest.NewRequest(http.MethodPost, "/jobs/bulk", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateJobsBulk(rec, req, 1<<20)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp BulkJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 1, resp.Created)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "x", resp.Errors[0].Name)
	require.Len(t, fs.jobs, 1)
}

func TestCreateJobsBulk_MissingFile(t *testing.T) {
	h, _ := newTestHandler()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/jobs/bulk", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	h.CreateJobsBulk(rec, req, 1<<20)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJobsBulk_NotJSONArray(t *testing.T) {
	h, _ := newTestHandler()
	buf, contentType := multipartBody(t, `not json`)
	req := httptest.NewRequest(http.MethodPost, "/jobs/bulk", buf)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateJobsBulk(rec, req, 1<<20)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth_DatabaseUp(t *testing.T) {
	h := NewHandler(&fakeStore{}, getTestMetrics(), &fakePinger{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := NewHandler(&fakeStore{}, getTestMetrics(), &fakePinger{err: context.DeadlineExceeded})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLive_AlwaysOK(t *testing.T) {
	h := NewHandler(&fakeStore{}, getTestMetrics(), &fakePinger{err: context.DeadlineExceeded})
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()

	h.Live(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
