package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyammm53/wardrobe-backend/pkg/config"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
)

func testWeatherConfig() config.WeatherConfig {
	return config.WeatherConfig{
		OpenWeatherAPIKey: "test-key",
		CacheTTL:          10 * time.Minute,
		DefaultLat:        40.7128,
		DefaultLon:        -74.0060,
		DefaultCity:       "New York",
		DefaultRegion:     "NY",
		DefaultCountry:    "US",
	}
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	switch v := value.(type) {
	case []byte:
		f.entries[key] = string(v)
	case string:
		f.entries[key] = v
	}
	return nil
}

func (f *fakeCache) WeatherKey(lat, lon float64) string {
	return "wardrobe:weather:test"
}

func TestLookupLocation_PrivateAddressesFallBack(t *testing.T) {
	svc := NewService(testWeatherConfig(), nil, nil)

	for _, ip := range []string{"", "127.0.0.1", "::1", "::ffff:127.0.0.1", "10.0.0.5", "192.168.1.20", "172.16.4.2", "0.0.0.0"} {
		loc := svc.LookupLocation(context.Background(), ip)
		assert.Equalf(t, "fallback", loc.Source, "ip %q", ip)
		assert.Equal(t, "New York", loc.City)
		assert.InDelta(t, 40.7128, loc.Lat, 1e-9)
	}
}

func TestLookupLocation_GeolocationSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "success",
			"lat":        51.5074,
			"lon":        -0.1278,
			"city":       "London",
			"regionName": "England",
			"country":    "United Kingdom",
		})
	}))
	defer server.Close()

	svc := NewService(testWeatherConfig(), nil, nil, WithIPAPIBaseURL(server.URL), WithHTTPClient(server.Client()))

	loc := svc.LookupLocation(context.Background(), "8.8.8.8")
	assert.Equal(t, "ip-api", loc.Source)
	assert.Equal(t, "London", loc.City)
	assert.Equal(t, "England", loc.Region)
	assert.InDelta(t, 51.5074, loc.Lat, 1e-9)
}

func TestLookupLocation_GeolocationFailureFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "reserved range"})
	}))
	defer server.Close()

	svc := NewService(testWeatherConfig(), nil, nil, WithIPAPIBaseURL(server.URL), WithHTTPClient(server.Client()))

	loc := svc.LookupLocation(context.Background(), "203.0.113.10")
	assert.Equal(t, "fallback", loc.Source)
	assert.Equal(t, "203.0.113.10", loc.IP)
}

func openWeatherPayload() map[string]any {
	return map[string]any{
		"main": map[string]any{
			"temp":       20.0,
			"feels_like": 18.5,
			"humidity":   60,
			"pressure":   1012,
		},
		"wind":    map[string]any{"speed": 3.4},
		"weather": []any{map[string]any{"main": "Clouds", "description": "scattered clouds", "icon": "03d"}},
		"sys":     map[string]any{"sunrise": 1700000000, "sunset": 1700040000},
		"dt":      1700020000,
	}
}

func TestCurrentWeather_FetchesAndCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		_ = json.NewEncoder(w).Encode(openWeatherPayload())
	}))
	defer server.Close()

	cache := newFakeCache()
	svc := NewService(testWeatherConfig(), nil, nil,
		WithOpenWeatherBaseURL(server.URL), WithHTTPClient(server.Client()), WithCache(cache))

	w, err := svc.CurrentWeather(context.Background(), 51.5, -0.12)
	require.NoError(t, err)
	require.NotNil(t, w.TemperatureC)
	assert.InDelta(t, 20.0, *w.TemperatureC, 1e-9)
	require.NotNil(t, w.TemperatureF)
	assert.InDelta(t, 68.0, *w.TemperatureF, 1e-9)
	assert.Equal(t, "scattered clouds", w.Description)
	assert.Equal(t, "Clouds", w.Conditions)
	require.NotNil(t, w.Sunrise)
	assert.Equal(t, time.Unix(1700020000, 0).UTC(), w.Timestamp)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from cache.
	again, err := svc.CurrentWeather(context.Background(), 51.5, -0.12)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.NotNil(t, again.TemperatureC)
	assert.InDelta(t, 20.0, *again.TemperatureC, 1e-9)
}

func TestCurrentWeather_MissingAPIKey(t *testing.T) {
	cfg := testWeatherConfig()
	cfg.OpenWeatherAPIKey = ""
	svc := NewService(cfg, nil, nil)

	_, err := svc.CurrentWeather(context.Background(), 0, 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestCurrentWeather_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewService(testWeatherConfig(), nil, nil,
		WithOpenWeatherBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := svc.CurrentWeather(context.Background(), 51.5, -0.12)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSuggestOutfit(t *testing.T) {
	desc := "light rain"
	s := SuggestOutfit(&Weather{Description: desc})
	assert.Len(t, s.Items, 3)
	assert.Contains(t, s.Reason, desc)
	assert.NotEmpty(t, s.Summary)

	s = SuggestOutfit(nil)
	assert.Contains(t, s.Reason, "coming soon")
}
