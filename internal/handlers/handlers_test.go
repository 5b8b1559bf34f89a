package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/api"
	"github.com/Mepiyou/myfirstfront/internal/auth"
	"github.com/Mepiyou/myfirstfront/internal/cart"
	"github.com/Mepiyou/myfirstfront/internal/config"
	"github.com/Mepiyou/myfirstfront/internal/database"
	"github.com/Mepiyou/myfirstfront/internal/handlers"
	"github.com/Mepiyou/myfirstfront/internal/models"
	"github.com/Mepiyou/myfirstfront/internal/notify"
	"github.com/Mepiyou/myfirstfront/internal/queue"
	"github.com/Mepiyou/myfirstfront/internal/routes"
	"github.com/Mepiyou/myfirstfront/internal/syncer"
)

type testApp struct {
	h      *handlers.Handlers
	router *gin.Engine
}

// newTestApp wires the full shell against a fake remote API base URL,
// exactly like main does, minus the listeners.
func newTestApp(t *testing.T, remoteBase string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	hub := notify.NewHub(log)
	tokens := auth.NewTokenStore(db)
	client := api.NewClient(remoteBase, tokens, log)
	cartStore := cart.NewStore(db, log)
	queueStore := queue.NewStore(db, hub, log)
	sync := syncer.New(queueStore, client.ProductsURL(), hub, log, syncer.Options{})

	h := &handlers.Handlers{
		DB:     db,
		API:    client,
		Cart:   cartStore,
		Queue:  queueStore,
		Syncer: sync,
		Tokens: tokens,
		Hub:    hub,
		Config: &config.Config{
			APIBase:        remoteBase,
			WhatsAppNumber: config.DefaultWhatsAppNumber,
			CORSOrigin:     config.DefaultCORSOrigin,
		},
		Log: log,
	}
	return &testApp{h: h, router: routes.SetupRouter(h)}
}

func (a *testApp) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) doForm(t *testing.T, method, path string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCartEndpoints(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")

	item := gin.H{"_id": "p1", "name": "Musk", "price": 1000.0, "image": "https://cdn.test/p1.jpg"}
	rec := app.doJSON(t, http.MethodPost, "/v1/cart/items", item)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.doJSON(t, http.MethodPost, "/v1/cart/items", item)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	totals := body["totals"].(map[string]any)
	assert.Equal(t, 2.0, totals["qty"])
	assert.Equal(t, 2000.0, totals["price"])

	rec = app.doJSON(t, http.MethodPost, "/v1/cart/items/p1/decrement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals = decode(t, rec)["totals"].(map[string]any)
	assert.Equal(t, 1.0, totals["qty"])
	assert.Equal(t, 1000.0, totals["price"])

	rec = app.doJSON(t, http.MethodPut, "/v1/cart/items/p1", gin.H{"qty": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	totals = decode(t, rec)["totals"].(map[string]any)
	assert.Equal(t, 4.0, totals["qty"])

	rec = app.doJSON(t, http.MethodDelete, "/v1/cart/items/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]any)
	assert.Empty(t, items)
}

func TestAddCartItemRejectsMissingFields(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	rec := app.doJSON(t, http.MethodPost, "/v1/cart/items", gin.H{"price": 1000.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutLink(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")

	rec := app.doJSON(t, http.MethodGet, "/v1/cart/checkout-link", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart has no checkout link")

	item := gin.H{"_id": "p1", "name": "Musk", "price": 1000.0}
	require.Equal(t, http.StatusOK, app.doJSON(t, http.MethodPost, "/v1/cart/items", item).Code)

	rec = app.doJSON(t, http.MethodGet, "/v1/cart/checkout-link", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	link := body["url"].(string)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/"+config.DefaultWhatsAppNumber+"?text="), link)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	message := parsed.Query().Get("text")
	assert.Contains(t, message, "Musk (x1): 1 000 FCFA")
	assert.Contains(t, message, "Total: 1 000 FCFA")
}

func TestGetProductsFiltersSiteConfig(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"data": []models.Product{
			{ID: "1", Name: "Musk", Price: 1000},
			{ID: "cfg", Name: models.SiteConfigName, Description: `{"theme":"light"}`},
		}})
	}))
	defer remote.Close()

	app := newTestApp(t, remote.URL)
	rec := app.doJSON(t, http.MethodGet, "/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	products := body["products"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, "Musk", products[0].(map[string]any)["name"])
	assert.Equal(t, "light", body["siteConfig"].(map[string]any)["theme"])
	assert.True(t, app.h.Syncer.Online())
}

func TestGetProductsUnreachableRemote(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	remote.Close()

	app := newTestApp(t, remote.URL)
	rec := app.doJSON(t, http.MethodGet, "/v1/products", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, app.h.Syncer.Online(), "transport failure marks the shell offline")
}

func TestAdminRequiresStoredToken(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	rec := app.doForm(t, http.MethodPost, "/v1/admin/products", map[string]string{"name": "Oud", "price": "25000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProductSuccess(t *testing.T) {
	var gotName string
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/admin/products", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotName = r.FormValue("name")
		w.WriteHeader(http.StatusCreated)
	}))
	defer remote.Close()

	app := newTestApp(t, remote.URL)
	require.NoError(t, app.h.Tokens.Save("tok-1"))

	rec := app.doForm(t, http.MethodPost, "/v1/admin/products", map[string]string{
		"name":  "Oud Royal",
		"price": "25000",
		"stock": "3",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Oud Royal", gotName)

	n, err := app.h.Queue.Len()
	require.NoError(t, err)
	assert.Zero(t, n, "successful calls are never queued")
}

func TestCreateProductQueuedWhileOffline(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	remote.Close()

	app := newTestApp(t, remote.URL)
	require.NoError(t, app.h.Tokens.Save("tok-1"))
	app.h.Syncer.SetOnline(false)

	rec := app.doForm(t, http.MethodPost, "/v1/admin/products", map[string]string{
		"name":  "Oud Royal",
		"price": "25000",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, true, decode(t, rec)["queued"])

	ops, err := app.h.Queue.ListPending()
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, http.MethodPost, ops[0].Method)
	assert.True(t, ops[0].Body.IsMultipart())
	assert.Equal(t, "Oud Royal", ops[0].Body.Fields["name"])
	assert.Equal(t, "Bearer tok-1", ops[0].Headers["Authorization"])
}

func TestCreateProductNetworkErrorWhileBelievedOnline(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	remote.Close()

	app := newTestApp(t, remote.URL)
	require.NoError(t, app.h.Tokens.Save("tok-1"))

	rec := app.doForm(t, http.MethodPost, "/v1/admin/products", map[string]string{
		"name":  "Oud Royal",
		"price": "25000",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code, "first failure surfaces instead of queueing")
	assert.False(t, app.h.Syncer.Online(), "and flips the connectivity state")

	n, err := app.h.Queue.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteProductQueuedWhileOffline(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	remote.Close()

	app := newTestApp(t, remote.URL)
	require.NoError(t, app.h.Tokens.Save("tok-1"))
	app.h.Syncer.SetOnline(false)

	rec := app.doJSON(t, http.MethodDelete, "/v1/admin/products/p9", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	ops, err := app.h.Queue.ListPending()
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, http.MethodDelete, ops[0].Method)
	assert.Contains(t, ops[0].URL, "/api/admin/products/p9")
	assert.False(t, ops[0].Body.IsMultipart())
}

func TestDeleteProductRejectedByRemote(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer remote.Close()

	app := newTestApp(t, remote.URL)
	require.NoError(t, app.h.Tokens.Save("tok-1"))

	rec := app.doJSON(t, http.MethodDelete, "/v1/admin/products/p9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "server rejections pass through, never queue")

	n, err := app.h.Queue.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateProductRejectsInvalidForm(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	require.NoError(t, app.h.Tokens.Save("tok-1"))

	rec := app.doForm(t, http.MethodPost, "/v1/admin/products", map[string]string{"name": "Oud"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "price is required")

	rec = app.doForm(t, http.MethodPost, "/v1/admin/products", map[string]string{"name": "Oud", "price": "-5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "price must be positive")
}

func TestGetQueueSummaries(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	require.NoError(t, app.h.Tokens.Save("tok-1"))

	_, err := app.h.Queue.Enqueue("http://unused.invalid/api/admin/products", http.MethodPost, nil,
		models.MultipartBody(map[string]string{"name": "Oud"}, []models.FilePart{{Field: "image", Filename: "a.png", Data: []byte{1, 2, 3}}}))
	require.NoError(t, err)

	rec := app.doJSON(t, http.MethodGet, "/v1/admin/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	pending := decode(t, rec)["pending"].([]any)
	require.Len(t, pending, 1)
	op := pending[0].(map[string]any)
	assert.Equal(t, "POST", op["method"])
	assert.Equal(t, true, op["isMultipart"])
	assert.NotContains(t, rec.Body.String(), "a.png", "payload bytes stay out of the summary")
}

func TestLoginSessionLogout(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-session"})
	}))
	defer remote.Close()

	app := newTestApp(t, remote.URL)

	rec := app.doJSON(t, http.MethodGet, "/v1/auth/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["authenticated"])

	rec = app.doJSON(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "admin@test.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.doJSON(t, http.MethodGet, "/v1/auth/session", nil)
	assert.Equal(t, true, decode(t, rec)["authenticated"])

	rec = app.doJSON(t, http.MethodPost, "/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.doJSON(t, http.MethodGet, "/v1/auth/session", nil)
	assert.Equal(t, false, decode(t, rec)["authenticated"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer remote.Close()

	app := newTestApp(t, remote.URL)
	rec := app.doJSON(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "admin@test.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	rec := app.doJSON(t, http.MethodPost, "/v1/auth/login", gin.H{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThemeEndpoints(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")

	rec := app.doJSON(t, http.MethodGet, "/v1/theme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dark", decode(t, rec)["theme"], "dark is the default")

	rec = app.doJSON(t, http.MethodPut, "/v1/theme", gin.H{"theme": "light"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.doJSON(t, http.MethodGet, "/v1/theme", nil)
	assert.Equal(t, "light", decode(t, rec)["theme"])

	rec = app.doJSON(t, http.MethodPut, "/v1/theme", gin.H{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearCart(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	item := gin.H{"_id": "p1", "name": "Musk", "price": 1000.0}
	require.Equal(t, http.StatusOK, app.doJSON(t, http.MethodPost, "/v1/cart/items", item).Code)

	rec := app.doJSON(t, http.MethodDelete, "/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.doJSON(t, http.MethodGet, "/v1/cart", nil)
	assert.Empty(t, decode(t, rec)["items"])
}
