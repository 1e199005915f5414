package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/jaytnw/sage-insights/internal/handlers"
	"github.com/jaytnw/sage-insights/internal/services"
	"github.com/jaytnw/sage-insights/internal/session"
	"github.com/jaytnw/sage-insights/internal/view"
	redisPkg "github.com/jaytnw/sage-insights/pkg/redisclient"
	"go.uber.org/zap"
)

type upstream struct {
	failWorkOrders atomic.Bool
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()

	switch r.URL.Path {
	case "/api/labs/user":
		if q.Get("userId") == "down" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{}`)
			return
		}
		if q.Get("userId") != "u1" {
			_, _ = io.WriteString(w, `{"labs":[]}`)
			return
		}
		_, _ = io.WriteString(w, `{"labs":[{"_id":"L1","name":"Assembly"},{"_id":"L2","name":"Paint Shop"}]}`)
	case "/api/machines":
		switch q.Get("labId") {
		case "L1":
			_, _ = io.WriteString(w, `{"machines":[{"_id":"m1","machineName":"Press","labId":"L1","status":"active"}]}`)
		default:
			_, _ = io.WriteString(w, `{"machines":[]}`)
		}
	case "/api/work-orders":
		if u.failWorkOrders.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)
	case "/api/influxdb/downtime":
		_, _ = io.WriteString(w, `{"data":{"totalDowntime":36000,"totalUptime":568800}}`)
	default:
		http.NotFound(w, r)
	}
}

type testApp struct {
	app      *fiber.App
	upstream *upstream
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	up := &upstream{}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	gate, err := session.NewGate("this-is-a-32-character-long-key!", "", "/login", false, logger)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	api := services.NewExternalAPIService(srv.URL, 0)
	labs := services.NewLabService(api, redisPkg.NewMemoryCache(), 0, logger)
	stats := services.NewStatsService(api, "-7d", 0, logger)
	pages := view.NewRegistry(labs, stats, nil, logger)

	app := fiber.New()
	Setup(app, gate, handlers.NewInsightsHandler(pages, labs, gate.LoginPath()), handlers.NewSessionHandler(gate, pages, logger))
	return &testApp{app: app, upstream: up}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := a.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func (a *testApp) login(t *testing.T, userID string) []*http.Cookie {
	t.Helper()
	form := url.Values{"userId": {userID}, "name": {"Operator"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, _ := a.do(t, req)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/ai-insights" {
		t.Fatalf("login: status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	return resp.Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	return req
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type snapshotEnvelope struct {
	Success bool          `json:"success"`
	Data    view.Snapshot `json:"data"`
}

func TestInsightsPage_RedirectsWithoutSession(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.do(t, httptest.NewRequest(http.MethodGet, "/ai-insights", nil))
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginPage_HasNoChrome(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.Contains(body, "sidebar") {
		t.Fatal("login page must not render the sidebar")
	}
	if !strings.Contains(body, `action="/login"`) {
		t.Fatal("login form missing")
	}
}

func TestInsightsPage_RendersStatsForFirstLab(t *testing.T) {
	a := newTestApp(t)
	cookies := a.login(t, "u1")

	resp, body := a.do(t, withCookies(httptest.NewRequest(http.MethodGet, "/ai-insights", nil), cookies))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	for _, want := range []string{
		`class="sidebar"`,
		`<option value="L1" selected>Assembly</option>`,
		"Active machines in Assembly",
		"5.95%",
		"94.05%",
		"10h 0m of total time",
		"6d 14h 0m of total time",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestInsightsPage_LabQueryParam(t *testing.T) {
	a := newTestApp(t)
	cookies := a.login(t, "u1")

	_, body := a.do(t, withCookies(httptest.NewRequest(http.MethodGet, "/ai-insights?labId=L2", nil), cookies))
	if !strings.Contains(body, `<option value="L2" selected>Paint Shop</option>`) {
		t.Fatal("L2 should be selected")
	}
	if !strings.Contains(body, "100.00%") {
		t.Fatal("empty lab should show full uptime")
	}
}

func TestInsightsAPI_SelectLab(t *testing.T) {
	a := newTestApp(t)
	cookies := a.login(t, "u1")
	a.do(t, withCookies(httptest.NewRequest(http.MethodGet, "/ai-insights", nil), cookies))

	req := httptest.NewRequest(http.MethodPost, "/api/insights/lab", strings.NewReader(`{"labId":"L2"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := a.do(t, withCookies(req, cookies))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body %s", resp.StatusCode, body)
	}

	var env snapshotEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.SelectedLabID != "L2" || env.Data.State != view.StateStatsReady {
		t.Fatalf("unexpected snapshot: %+v", env.Data)
	}
	if env.Data.Stats == nil || env.Data.Stats.TotalMachines != 0 || env.Data.Stats.UptimePercentage != 100 {
		t.Fatalf("unexpected stats: %+v", env.Data.Stats)
	}
}

func TestInsightsAPI_WorkOrderFailureNotifiesOnce(t *testing.T) {
	a := newTestApp(t)
	a.upstream.failWorkOrders.Store(true)
	cookies := a.login(t, "u1")

	req := httptest.NewRequest(http.MethodPost, "/api/insights/lab", strings.NewReader(`{"labId":"L1"}`))
	req.Header.Set("Content-Type", "application/json")
	_, body := a.do(t, withCookies(req, cookies))

	var env snapshotEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := env.Data.Stats
	if s == nil || s.TotalMachines != 0 || s.ScheduledMaintenanceCount != 0 || s.UptimePercentage != 100 || s.DowntimePercentage != 0 {
		t.Fatalf("unexpected fallback: %+v", s)
	}
	if len(env.Data.Notices) != 1 || env.Data.Notices[0].Message != "Failed to load maintenance statistics" {
		t.Fatalf("notices = %+v", env.Data.Notices)
	}

	_, body = a.do(t, withCookies(httptest.NewRequest(http.MethodGet, "/api/insights", nil), cookies))
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data.Notices) != 0 {
		t.Fatalf("notice should fire only once, got %+v", env.Data.Notices)
	}
}

func TestInsightsAPI_Unauthorized(t *testing.T) {
	a := newTestApp(t)

	resp, _ := a.do(t, httptest.NewRequest(http.MethodGet, "/api/insights", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestInsightsAPI_Labs(t *testing.T) {
	a := newTestApp(t)
	cookies := a.login(t, "u1")

	resp, body := a.do(t, withCookies(httptest.NewRequest(http.MethodGet, "/api/insights/labs", nil), cookies))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"_id":"L1"`) || !strings.Contains(body, `"_id":"L2"`) {
		t.Fatalf("labs missing from %s", body)
	}
}

func TestInsightsAPI_LabsUpstreamFailure(t *testing.T) {
	a := newTestApp(t)
	cookies := a.login(t, "down")

	resp, body := a.do(t, withCookies(httptest.NewRequest(http.MethodGet, "/api/insights/labs", nil), cookies))
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}

	var env errorEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != "UPSTREAM_ERROR" || env.Error.Message != "Failed to fetch labs" {
		t.Fatalf("unexpected error body: %+v", env)
	}
}

func TestInsightsAPI_SelectLabBadBody(t *testing.T) {
	a := newTestApp(t)
	cookies := a.login(t, "u1")

	req := httptest.NewRequest(http.MethodPost, "/api/insights/lab", strings.NewReader(`{"labId":`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := a.do(t, withCookies(req, cookies))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var env errorEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "BAD_REQUEST" {
		t.Fatalf("code = %q, want BAD_REQUEST", env.Error.Code)
	}
}
