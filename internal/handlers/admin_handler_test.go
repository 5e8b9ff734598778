package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathclub/internal/activity"
	"mathclub/internal/security"
	"mathclub/internal/service"
)

type fakeReports struct {
	views    []service.StudentView
	lastPage service.Page
	err      error
	overview *activity.Overview
}

func (f *fakeReports) ListStudents(ctx context.Context, page service.Page) ([]service.StudentView, error) {
	f.lastPage = page
	if page.Skip < 0 || page.Limit < 0 {
		return nil, service.ErrInvalidPage
	}
	return f.views, f.err
}

func (f *fakeReports) GetStudent(ctx context.Context, studentID int64) (*service.StudentView, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.views {
		if f.views[i].ChildID == "child-"+itoa(studentID) {
			return &f.views[i], nil
		}
	}
	return nil, service.ErrStudentNotFound
}

func (f *fakeReports) Overview(ctx context.Context) (*activity.Overview, error) {
	return f.overview, f.err
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func newTestMux(reports StudentReports, limiter *security.RateLimiter) *http.ServeMux {
	mux := http.NewServeMux()
	NewAdminHandler(reports, limiter, "test").RegisterRoutes(mux)
	return mux
}

func serve(mux http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListStudents(t *testing.T) {
	reports := &fakeReports{views: []service.StudentView{{ID: "acct-1", Name: "Asha", ChildID: "child-1"}}}
	mux := newTestMux(reports, nil)

	rec := serve(mux, "/admin/students?skip=5&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.Page{Skip: 5, Limit: 10}, reports.lastPage)

	var views []service.StudentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Asha", views[0].Name)
}

func TestListStudentsEmptyIsArray(t *testing.T) {
	mux := newTestMux(&fakeReports{}, nil)

	rec := serve(mux, "/admin/students")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListStudentsBadParams(t *testing.T) {
	mux := newTestMux(&fakeReports{}, nil)

	for _, target := range []string{
		"/admin/students?skip=abc",
		"/admin/students?limit=1.5",
		"/admin/students?skip=-1",
	} {
		rec := serve(mux, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListStudentsServiceError(t *testing.T) {
	mux := newTestMux(&fakeReports{err: errors.New("db down")}, nil)

	rec := serve(mux, "/admin/students")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to load students"}`, rec.Body.String())
}

func TestGetStudent(t *testing.T) {
	reports := &fakeReports{views: []service.StudentView{{ID: "acct-7", Name: "Ravi", ChildID: "child-7"}}}
	mux := newTestMux(reports, nil)

	rec := serve(mux, "/admin/students/7")
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.StudentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Ravi", view.Name)

	assert.Equal(t, http.StatusNotFound, serve(mux, "/admin/students/8").Code)
	assert.Equal(t, http.StatusBadRequest, serve(mux, "/admin/students/abc").Code)
	assert.Equal(t, http.StatusBadRequest, serve(mux, "/admin/students/0").Code)
}

func TestOverview(t *testing.T) {
	reports := &fakeReports{overview: &activity.Overview{TotalStudents: 3, TotalReports: 4, AverageMarks: 80}}
	mux := newTestMux(reports, nil)

	rec := serve(mux, "/admin/overview")
	require.Equal(t, http.StatusOK, rec.Code)

	var overview activity.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Equal(t, 3, overview.TotalStudents)
	assert.Equal(t, 80, overview.AverageMarks)
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestMux(&fakeReports{}, nil), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, rec.Body.String())
}

func TestAdminRoutesAreRateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := security.NewRateLimiter(ctx, 1, time.Minute)
	mux := newTestMux(&fakeReports{}, limiter)

	assert.Equal(t, http.StatusOK, serve(mux, "/admin/students").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(mux, "/admin/students").Code)
	// health checks are never limited
	assert.Equal(t, http.StatusOK, serve(mux, "/healthz").Code)
}

func TestLoggingRecordsStatus(t *testing.T) {
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := serve(handler, "/anything")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
