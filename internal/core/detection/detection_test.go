package detection

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"myfridge-api/internal/infrastructure/config"
	"myfridge-api/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupClass(t *testing.T) {
	assert.Equal(t, FoodClass{"Tamatar", "ٹماٹر"}, LookupClass(0))
	assert.Equal(t, FoodClass{"dahi", "دہی"}, LookupClass(20))
	assert.Equal(t, UnknownClass, LookupClass(21))
	assert.Equal(t, UnknownClass, LookupClass(-1))
	assert.Len(t, FoodClasses, 21)
}

func TestIngredientID(t *testing.T) {
	tests := map[string]string{
		"Tamatar":            "tamatar",
		"Hari Mirch":         "hari_mirch",
		"lehsan-adrak-paste": "lehsan_adrak_paste",
		" Shimla Mirch ":     "shimla_mirch",
	}
	for in, want := range tests {
		assert.Equal(t, want, IngredientID(in), in)
	}
}

func TestIngredients(t *testing.T) {
	dets := []Detection{
		{Ingredient: "tamatar"},
		{Ingredient: "anday"},
		{Ingredient: ""},
		{Ingredient: "tamatar"},
	}
	assert.Equal(t, []string{"tamatar", "anday"}, Ingredients(dets))
	assert.Empty(t, Ingredients(nil))
}

func detectorConfig(url string) (config.DetectorConfig, config.BreakerConfig) {
	return config.DetectorConfig{
			Enabled:             true,
			BaseURL:             url,
			APIKey:              "secret-key",
			Timeout:             2 * time.Second,
			ConfidenceThreshold: 0.25,
			ImageSize:           640,
			MaxRetries:          0,
		}, config.BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 2,
		}
}

func TestRemoteDetector_Detect(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = common.ParseJSONBytes(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detections":[
			{"class_id": 4, "confidence": 0.91, "box": [1, 2, 30, 40]},
			{"class_id": 0, "confidence": 0.10, "box": [0, 0, 1, 1]},
			{"class_id": 99, "confidence": 0.50, "box": [5, 5, 6, 6]}
		]}`))
	}))
	defer srv.Close()

	d := NewRemoteDetector(detectorConfig(srv.URL))
	dets, err := d.Detect(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "aW1hZ2U=", gotBody["image"])
	assert.NotNil(t, gotBody["conf"])
	assert.NotNil(t, gotBody["imgsz"])

	require.Len(t, dets, 2, "low-confidence detection is dropped")
	assert.Equal(t, Detection{
		Name:        "Hari Mirch",
		NameUrdu:    "ہری مرچ",
		Ingredient:  "hari_mirch",
		Confidence:  0.91,
		BoundingBox: []float64{1, 2, 30, 40},
		ClassID:     4,
	}, dets[0])
	assert.Equal(t, "Unknown", dets[1].Name)
	assert.Empty(t, dets[1].Ingredient)
}

func TestRemoteDetector_BreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewRemoteDetector(detectorConfig(srv.URL))

	for i := 0; i < 2; i++ {
		_, err := d.Detect(context.Background(), "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrDetectorUnavailable)
	}
	assert.Equal(t, "open", d.State())

	_, err := d.Detect(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrDetectorUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "open breaker does not call the server")
}

func TestRemoteDetector_BadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	d := NewRemoteDetector(detectorConfig(srv.URL))
	_, err := d.Detect(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrDetectorUnavailable)
}
