package api

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"myfridge-api/internal/core/cache"
	"myfridge-api/internal/core/detection"
	imagesvc "myfridge-api/internal/core/image"
	"myfridge-api/internal/core/recipe"
	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubDetector struct {
	dets []detection.Detection
}

func (s *stubDetector) Detect(ctx context.Context, imageB64 string) ([]detection.Detection, error) {
	return s.dets, nil
}

type stubBreaker string

func (b stubBreaker) State() string { return string(b) }

func testConfig() *config.Config {
	tiers := recipe.DefaultStapleTiers()
	return &config.Config{
		App: config.AppConfig{Name: "My Fridge AI API", Version: "1.0.0", Env: "test"},
		Matching: config.MatchingConfig{
			MinMatch:     30,
			DryStaples:   tiers.Dry,
			FreshStaples: tiers.Fresh,
		},
		Image: config.ImageConfig{
			MaxSizeBytes:      1024 * 1024,
			MaxDimension:      4096,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp"},
		},
		Queue:       config.QueueConfig{Workers: 1, MaxSize: 4},
		DedupWindow: time.Nanosecond,
	}
}

func testRecipes(t *testing.T) *recipe.Service {
	t.Helper()
	c, err := recipe.NewCatalog([]recipe.Recipe{
		{
			ID:         "anda_tamatar",
			Name:       "Anda Tamatar",
			Category:   "breakfast",
			CookTime:   15,
			Difficulty: "easy",
			Ingredients: recipe.Ingredients{
				Detectable: []string{"anday", "tamatar", "piyaaz"},
				Pantry:     []string{"namak", "tel"},
			},
		},
		{
			ID:         "beef_nihari",
			Name:       "Beef Nihari",
			Category:   "main_course",
			CookTime:   240,
			Difficulty: "hard",
			Ingredients: recipe.Ingredients{
				NonDetectable: []string{"beef", "aata"},
			},
		},
	})
	require.NoError(t, err)
	return recipe.NewService(c, testConfig().Matching)
}

type routerOpts struct {
	cfg      *config.Config
	detector detection.Detector
	store    cache.Store
	breaker  string
}

func newTestRouter(t *testing.T, opts routerOpts) *gin.Engine {
	t.Helper()
	cfg := opts.cfg
	if cfg == nil {
		cfg = testConfig()
	}

	var queue *detection.Queue
	if opts.detector != nil {
		queue = detection.NewQueue(cfg.Queue, opts.detector)
		queue.Start()
		t.Cleanup(queue.Stop)
	}

	deps := Dependencies{
		Recipes:   testRecipes(t),
		Detection: detection.NewService(imagesvc.NewService(cfg.Image), opts.store, queue),
		Cache:     opts.store,
	}
	if opts.breaker != "" {
		deps.Breaker = stubBreaker(opts.breaker)
	}

	router, err := SetupRouter(cfg, deps)
	require.NoError(t, err)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, common.ParseJSONBytes(w.Body.Bytes(), v))
}

func upload(t *testing.T, router http.Handler, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/detect", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSetupRouter_RequiresServices(t *testing.T) {
	_, err := SetupRouter(testConfig(), Dependencies{})
	assert.Error(t, err)
}

func TestRoot(t *testing.T) {
	w := do(newTestRouter(t, routerOpts{}), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "My Fridge AI API", body["message"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMatchRecipes(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	w := do(router, http.MethodPost, "/api/recipes/match", `{"ingredients":["tamatar"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		TotalCount int    `json:"total_count"`
		Recipes    []struct {
			Recipe struct {
				ID string `json:"id"`
			} `json:"recipe"`
			MatchPercentage    float64  `json:"match_percentage"`
			HasIngredients     []string `json:"has_ingredients"`
			MissingIngredients []string `json:"missing_ingredients"`
		} `json:"recipes"`
	}
	decode(t, w, &body)

	assert.True(t, body.Success)
	assert.Equal(t, "Found 1 matching recipes", body.Message)
	require.Equal(t, 1, body.TotalCount)
	require.Len(t, body.Recipes, 1)
	assert.Equal(t, "anda_tamatar", body.Recipes[0].Recipe.ID)
	assert.InDelta(t, 66.67, body.Recipes[0].MatchPercentage, 0.01)
	assert.Equal(t, []string{"tamatar"}, body.Recipes[0].HasIngredients)
	assert.Equal(t, []string{"anday", "piyaaz"}, body.Recipes[0].MissingIngredients)
}

func TestMatchRecipes_EmptyListIsValid(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	w := do(router, http.MethodPost, "/api/recipes/match", `{"ingredients":[]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		TotalCount int           `json:"total_count"`
		Recipes    []interface{} `json:"recipes"`
	}
	decode(t, w, &body)
	assert.NotNil(t, body.Recipes)
}

func TestMatchRecipes_BadRequests(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	tests := map[string]string{
		"missing ingredients": `{}`,
		"malformed json":      `{"ingredients":`,
		"wrong type":          `{"ingredients":"tamatar"}`,
		"min_match too high":  `{"ingredients":["tamatar"],"min_match":150}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/recipes/match", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp common.ErrorResponse
			decode(t, w, &resp)
			assert.False(t, resp.Success)
			assert.Equal(t, common.ErrCodeInvalidRequest, resp.Code)
		})
	}
}

func TestMatchRecipes_WithFiltersAndThreshold(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	w := do(router, http.MethodPost, "/api/recipes/match",
		`{"ingredients":["beef","aata"],"min_match":0,"filters":{"category":"main_course"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body matchBody
	decode(t, w, &body)
	require.Len(t, body.Recipes, 1)
	assert.Equal(t, "beef_nihari", body.Recipes[0].Recipe.ID)
}

// matchBody 只取測試需要的欄位
type matchBody struct {
	Recipes []struct {
		Recipe struct {
			ID string `json:"id"`
		} `json:"recipe"`
	} `json:"recipes"`
}

func TestListRecipes(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	tests := []struct {
		query string
		code  int
		ids   []string
	}{
		{"", http.StatusOK, []string{"anda_tamatar", "beef_nihari"}},
		{"?category=breakfast", http.StatusOK, []string{"anda_tamatar"}},
		{"?difficulty=hard", http.StatusOK, []string{"beef_nihari"}},
		{"?max_time=30", http.StatusOK, []string{"anda_tamatar"}},
		{"?max_time=0", http.StatusOK, []string{"anda_tamatar", "beef_nihari"}},
		{"?category=dessert", http.StatusOK, []string{}},
		{"?max_time=abc", http.StatusBadRequest, nil},
		{"?max_time=-5", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(router, http.MethodGet, "/api/recipes"+tt.query, "")
			require.Equal(t, tt.code, w.Code)
			if tt.code != http.StatusOK {
				return
			}

			var list []recipe.Recipe
			decode(t, w, &list)
			ids := make([]string, 0, len(list))
			for _, r := range list {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestGetRecipe(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	w := do(router, http.MethodGet, "/api/recipes/beef_nihari", "")
	require.Equal(t, http.StatusOK, w.Code)
	var r recipe.Recipe
	decode(t, w, &r)
	assert.Equal(t, "Beef Nihari", r.Name)

	w = do(router, http.MethodGet, "/api/recipes/pizza", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	var resp common.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "RECIPE_NOT_FOUND", resp.Code)
	assert.Equal(t, "Recipe with id 'pizza' not found", resp.Message)
}

func TestIngredients(t *testing.T) {
	w := do(newTestRouter(t, routerOpts{}), http.MethodGet, "/api/ingredients", "")
	require.Equal(t, http.StatusOK, w.Code)

	var v recipe.IngredientVocabulary
	decode(t, w, &v)
	assert.Contains(t, v.Detectable, "tamatar")
	assert.Contains(t, v.Common, "grains")
	assert.Contains(t, v.Pantry, "namak")
}

func TestDetect_Disabled(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	w := upload(t, router, "fridge.png", samplePNG(t))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp common.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "DETECTOR_DISABLED", resp.Code)
}

func TestDetect(t *testing.T) {
	store := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })

	router := newTestRouter(t, routerOpts{
		detector: &stubDetector{dets: []detection.Detection{
			{Name: "Tamatar", NameUrdu: "ٹماٹر", Ingredient: "tamatar", Confidence: 0.9, BoundingBox: []float64{1, 2, 3, 4}},
		}},
		store: store,
	})

	w := upload(t, router, "fridge.png", samplePNG(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Success       bool                  `json:"success"`
		Message       string                `json:"message"`
		DetectedItems []detection.Detection `json:"detected_items"`
		TotalCount    int                   `json:"total_count"`
	}
	decode(t, w, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "Detection completed successfully", body.Message)
	assert.Equal(t, 1, body.TotalCount)
	assert.Equal(t, "tamatar", body.DetectedItems[0].Ingredient)
	assert.Equal(t, []float64{1, 2, 3, 4}, body.DetectedItems[0].BoundingBox)
}

func TestDetect_BadUploads(t *testing.T) {
	router := newTestRouter(t, routerOpts{detector: &stubDetector{}})

	w := upload(t, router, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, router, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp common.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "INVALID_IMAGE_TYPE", resp.Code)

	w = upload(t, router, "fridge.png", []byte("not really a png"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, routerOpts{detector: &stubDetector{}, breaker: "closed"})

	w := do(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status      string `json:"status"`
		CatalogSize int    `json:"catalog_size"`
		Detector    struct {
			Enabled bool   `json:"enabled"`
			Breaker string `json:"breaker"`
		} `json:"detector"`
		Queue *detection.Status `json:"queue"`
	}
	decode(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 2, health.CatalogSize)
	assert.True(t, health.Detector.Enabled)
	assert.Equal(t, "closed", health.Detector.Breaker)
	require.NotNil(t, health.Queue)
	assert.Equal(t, 1, health.Queue.Workers)

	w = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "myfridge_http_requests_total")
}

func TestReady_BreakerOpen(t *testing.T) {
	router := newTestRouter(t, routerOpts{breaker: "open"})

	w := do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeduplication(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	router := newTestRouter(t, routerOpts{cfg: cfg})

	body := `{"ingredients":["anday"]}`
	w := do(router, http.MethodPost, "/api/recipes/match", body)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/recipes/match", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(router, http.MethodPost, "/api/recipes/match", `{"ingredients":["piyaaz"]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// GET 不受影響
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/recipes", "").Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Hour}
	router := newTestRouter(t, routerOpts{cfg: cfg})

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/live", "").Code)

	w := do(router, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestBodySizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Image.MaxSizeBytes = 16
	router := newTestRouter(t, routerOpts{cfg: cfg})

	big := `{"ingredients":["` + strings.Repeat("a", 2<<20) + `"]}`
	w := do(router, http.MethodPost, "/api/recipes/match", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNoRoute(t *testing.T) {
	router := newTestRouter(t, routerOpts{})

	w := do(router, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp common.ErrorResponse
	decode(t, w, &resp)
	assert.False(t, resp.Success)
	assert.Equal(t, common.ErrCodeNotFound, resp.Code)
}
