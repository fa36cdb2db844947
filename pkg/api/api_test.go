package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/pkg/logger"
	"orderdesk/pkg/order"
	"orderdesk/pkg/order/memory"
	"orderdesk/pkg/session"
)

type fakeSessions struct {
	mu    sync.Mutex
	users map[string]string
	next  int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{users: map[string]string{}}
}

func (f *fakeSessions) Create(_ context.Context, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	sid := "sid-" + string(rune('a'+f.next))
	f.users[sid] = user
	return sid, nil
}

func (f *fakeSessions) Lookup(_ context.Context, sid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[sid]
	if !ok {
		return "", session.ErrNotFound
	}
	return u, nil
}

func (f *fakeSessions) Delete(_ context.Context, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, sid)
	return nil
}

func (f *fakeSessions) TTL() time.Duration { return time.Hour }

type harness struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := order.NewService(memory.New(), logger.NewNop())
	srv := New(svc, newFakeSessions(), logger.NewNop(), nil)
	h := &harness{t: t, handler: srv.Router()}
	h.login()
	return h
}

func (h *harness) login() {
	rec := h.do(http.MethodPost, "/login", `{"username":"alice","password":"pw"}`)
	require.Equal(h.t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(h.t, cookies, 1)
	h.cookie = cookies[0]
}

func (h *harness) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestOrdersRequireSession(t *testing.T) {
	h := newHarness(t)
	h.cookie = nil
	rec := h.do(http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h.cookie = &http.Cookie{Name: sessionCookie, Value: "forged"}
	rec = h.do(http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsEmptyUsername(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/login", `{"username":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGetOrder(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/orders", `{"id":"O1","customer":"Alice","items":[{"product_name":"Pen","amount":3.5}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[order.View](t, rec)
	assert.Equal(t, "O1", created.ID)
	assert.Equal(t, 3.5, created.Total)

	rec = h.do(http.MethodGet, "/orders/O1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[order.View](t, rec)
	assert.Equal(t, created, got)

	rec = h.do(http.MethodGet, "/orders/none", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGeneratesID(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/orders", `{"customer":"Bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	v := decode[order.View](t, rec)
	assert.NotEmpty(t, v.ID)
	assert.Empty(t, v.Items)
}

func TestCreateDuplicateConflicts(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/orders", `{"id":"O1","customer":"Alice"}`).Code)

	rec := h.do(http.MethodPost, "/orders", `{"id":"O1","customer":"Mallory"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	got := decode[order.View](t, h.do(http.MethodGet, "/orders/O1", ""))
	assert.Equal(t, "Alice", got.Customer)
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/orders", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/orders", `{"id":"O2","customer":"Bob","items":[{"product_name":"Desk","amount":120}]}`).Code)

	rec := h.do(http.MethodPut, "/orders/O2", `{"customer":"Robert"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[order.View](t, rec)
	assert.Equal(t, "Robert", v.Customer)
	assert.Equal(t, []order.LineItem{{ProductName: "Desk", Amount: 120}}, v.Items)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/orders/missing", `{"customer":"x"}`).Code)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/orders/O2", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/orders/O2", "").Code)
}

func TestQueryFilters(t *testing.T) {
	h := newHarness(t)
	for _, body := range []string{
		`{"id":"O1","customer":"Alice","items":[{"product_name":"Pen","amount":3.5}]}`,
		`{"id":"O2","customer":"Bob","items":[{"product_name":"Desk","amount":120}]}`,
		`{"id":"X3","customer":"Carol","items":[{"product_name":"Lamp","amount":15}]}`,
	} {
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/orders", body).Code)
	}

	ids := func(target string) []string {
		rec := h.do(http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var out []string
		for _, v := range decode[[]order.View](t, rec) {
			out = append(out, v.ID)
		}
		return out
	}

	assert.Equal(t, []string{"O1", "X3", "O2"}, ids("/orders"))
	assert.Equal(t, []string{"O2"}, ids("/orders?min_amount=100"))
	assert.Equal(t, []string{"X3"}, ids("/orders?min_amount=10&max_amount=20"))
	assert.Equal(t, []string{"X3"}, ids("/orders?keyword=X"))
	assert.Empty(t, ids("/orders?keyword=nobody"))

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/orders?min_amount=lots", "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/orders?max_amount=NaN", "").Code)
}

func TestQueryEmptyStoreReturnsArray(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
