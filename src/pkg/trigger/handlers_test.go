package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuumbleweed/xerr"

	"fuel-report/src/pkg/mailer"
	"fuel-report/src/pkg/report"
	"fuel-report/src/pkg/source"
)

var fixedNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

const threeTodayRecords = `{"result":{"records":[
	{"fecha_vigencia":"2024-05-10 08:00:00","producto":"Nafta","provincia":"Córdoba","empresa":"A","idempresa":"1","empresabandera":"YPF","precio":"1000"},
	{"fecha_vigencia":"2024-05-10 09:00:00","producto":"Diesel","provincia":"Córdoba","empresa":"B","idempresa":"2","empresabandera":"SHELL","precio":"1200"},
	{"fecha_vigencia":"2024-05-10 10:00:00","producto":"Nafta","provincia":"Salta","empresa":"C","idempresa":"3","empresabandera":"YPF","precio":"0"},
	{"fecha_vigencia":"2024-05-08 10:00:00","producto":"GNC","provincia":"Salta","empresa":"D","idempresa":"4","empresabandera":"AXION","precio":"500"}
]}}`

const noRecordsToday = `[
	{"fecha_vigencia":"2024-05-08 10:00:00","producto":"Nafta","empresa":"A","idempresa":"1","precio":"1000"}
]`

type fakeSender struct {
	messages []mailer.Message
	e        *xerr.Error
}

func (f *fakeSender) Send(_ context.Context, message mailer.Message) (mailer.Receipt, *xerr.Error) {
	f.messages = append(f.messages, message)
	if f.e != nil {
		return mailer.Receipt{Attempts: 3}, f.e
	}
	return mailer.Receipt{MessageID: "<run@example.com>", Attempts: 1}, nil
}

type harness struct {
	echo          *echo.Echo
	sender        *fakeSender
	upstreamCalls *atomic.Int32
}

func newHarness(t *testing.T, status int, body string) *harness {
	t.Helper()

	calls := &atomic.Int32{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	sourceCfg := source.DefaultValueConfig()
	sourceCfg.URL = upstream.URL

	sender := &fakeSender{}
	handler := &Handler{
		Runner: &Runner{
			Fetcher: source.NewClient(sourceCfg),
			Sender:  sender,
			Report:  report.DefaultValueConfig(),
			Now:     func() time.Time { return fixedNow },
		},
		Service: "fuel-report",
	}

	e := echo.New()
	handler.Register(e)
	return &harness{echo: e, sender: sender, upstreamCalls: calls}
}

func (h *harness) do(method, target, body string) *httptest.ResponseRecorder {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
		request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	recorder := httptest.NewRecorder()
	h.echo.ServeHTTP(recorder, request)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

func TestHealth(t *testing.T) {
	h := newHarness(t, http.StatusOK, `[]`)

	recorder := h.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	payload := decode(t, recorder)
	assert.Equal(t, "OK", payload["status"])
	assert.Equal(t, "fuel-report", payload["service"])
	assert.Equal(t, "2024-05-10T15:00:00Z", payload["timestamp"])
	assert.Equal(t, int32(0), h.upstreamCalls.Load())
}

func TestTriggerDailyWithoutRecordsToday(t *testing.T) {
	h := newHarness(t, http.StatusOK, noRecordsToday)

	recorder := h.do(http.MethodPost, "/trigger-report", "")

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	payload := decode(t, recorder)
	result := payload["result"].(map[string]any)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, true, result["emailSent"])
	assert.Equal(t, float64(0), result["todayRecords"])
	assert.NotContains(t, result, "totalRecords")
	assert.Equal(t, "<run@example.com>", result["messageId"])
	assert.Equal(t, map[string]any{"startDate": "2024-05-03", "endDate": "2024-05-10"}, payload["period"])
	assert.NotEmpty(t, recorder.Header().Get(RunIDHeader))

	require.Len(t, h.sender.messages, 1)
	sent := h.sender.messages[0]
	assert.Contains(t, sent.HTML, report.NoDataMessage)
	assert.NotContains(t, sent.HTML, "data-section=")
	assert.Equal(t, "Fuel price report - 2024-05-10", sent.Subject)
	assert.Equal(t, recorder.Header().Get(RunIDHeader), sent.RunID)
}

func TestTriggerDailyProductShares(t *testing.T) {
	h := newHarness(t, http.StatusOK, threeTodayRecords)

	recorder := h.do(http.MethodPost, "/trigger-report", `{}`)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	result := decode(t, recorder)["result"].(map[string]any)
	assert.Equal(t, float64(3), result["todayRecords"])

	require.Len(t, h.sender.messages, 1)
	html := h.sender.messages[0].HTML
	assert.Contains(t, html, "66.7%")
	assert.Contains(t, html, "33.3%")
	assert.Less(t, strings.Index(html, ">Nafta<"), strings.Index(html, ">Diesel<"))
	assert.NotContains(t, html, ">GNC<")
}

func TestTriggerRange(t *testing.T) {
	h := newHarness(t, http.StatusOK, threeTodayRecords)

	recorder := h.do(http.MethodPost, "/trigger-report", `{"startDate":"2024-05-01","endDate":"2024-05-10"}`)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	payload := decode(t, recorder)
	result := payload["result"].(map[string]any)
	assert.Equal(t, float64(4), result["totalRecords"])
	assert.NotContains(t, result, "todayRecords")
	assert.Equal(t, map[string]any{"startDate": "2024-05-01", "endDate": "2024-05-10"}, payload["period"])
	assert.Contains(t, h.sender.messages[0].HTML, ">GNC<")
}

func TestTriggerGet(t *testing.T) {
	h := newHarness(t, http.StatusOK, threeTodayRecords)

	recorder := h.do(http.MethodGet, "/trigger-report?startDate=2024-05-09&endDate=2024-05-10", "")

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	result := decode(t, recorder)["result"].(map[string]any)
	assert.Equal(t, float64(3), result["totalRecords"])
	assert.Equal(t, int32(1), h.upstreamCalls.Load())
}

func TestTriggerRejectsBadDates(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		wantErr string
	}{
		{"post inverted", http.MethodPost, "/trigger-report", `{"startDate":"2024-05-10","endDate":"2024-05-01"}`, MsgStartAfterEnd},
		{"post bad format", http.MethodPost, "/trigger-report", `{"startDate":"10/05/2024"}`, MsgInvalidDateFormat},
		{"get inverted", http.MethodGet, "/trigger-report?startDate=2024-05-10&endDate=2024-05-01", "", MsgStartAfterEnd},
		{"get bad format", http.MethodGet, "/trigger-report?endDate=tomorrow", "", MsgInvalidDateFormat},
		{"post malformed json", http.MethodPost, "/trigger-report", `{"startDate":`, "Invalid request body."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, http.StatusOK, threeTodayRecords)

			recorder := h.do(tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.wantErr, decode(t, recorder)["error"])
			assert.Equal(t, int32(0), h.upstreamCalls.Load())
			assert.Empty(t, h.sender.messages)
		})
	}
}

func TestTriggerUpstreamFailure(t *testing.T) {
	h := newHarness(t, http.StatusServiceUnavailable, `{"error":"maintenance"}`)

	recorder := h.do(http.MethodPost, "/trigger-report", "")

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	payload := decode(t, recorder)
	assert.Equal(t, "Failed to fetch price data", payload["error"])
	assert.Contains(t, payload["details"], "503")
	assert.Empty(t, h.sender.messages)
}

func TestTriggerDeliveryFailure(t *testing.T) {
	h := newHarness(t, http.StatusOK, threeTodayRecords)
	h.sender.e = xerr.NewError(errors.Join(mailer.ErrDelivery, errors.New("535 auth failed")), "Unable to send report email", nil)

	recorder := h.do(http.MethodPost, "/trigger-report", "")

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	payload := decode(t, recorder)
	assert.Equal(t, "Failed to send report email", payload["error"])
	assert.Contains(t, payload["details"], "535 auth failed")
}
