package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shyammm53/wardrobe-backend/internal/auth"
	"github.com/shyammm53/wardrobe-backend/internal/items"
	"github.com/shyammm53/wardrobe-backend/internal/stylist"
	"github.com/shyammm53/wardrobe-backend/internal/users"
	"github.com/shyammm53/wardrobe-backend/internal/weather"
	pkgAuth "github.com/shyammm53/wardrobe-backend/pkg/auth"
	"github.com/shyammm53/wardrobe-backend/pkg/config"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	"github.com/shyammm53/wardrobe-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Signup(context.Context, auth.SignupRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "signup-token", User: &users.UserDTO{ID: uuid.New()}}, nil
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "login-token", User: &users.UserDTO{ID: uuid.New()}}, nil
}

func (stubAuthService) Me(_ context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID, Email: "me@example.com"}, nil
}

type stubWardrobeService struct{}

func (stubWardrobeService) Upload(context.Context, items.UploadInput, string) (*items.ItemDTO, error) {
	return &items.ItemDTO{ID: uuid.New()}, nil
}

func (stubWardrobeService) List(context.Context, uuid.UUID, string) ([]*items.ItemDTO, error) {
	return []*items.ItemDTO{}, nil
}

func (stubWardrobeService) Get(context.Context, uuid.UUID, uuid.UUID, string) (*items.ItemDTO, error) {
	return &items.ItemDTO{}, nil
}

func (stubWardrobeService) Update(context.Context, uuid.UUID, uuid.UUID, items.UpdateItemInput, string) (*items.ItemDTO, error) {
	return &items.ItemDTO{}, nil
}

func (stubWardrobeService) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubWardrobeService) SetUserTags(context.Context, uuid.UUID, uuid.UUID, items.UserTagsInput, string) (*items.ItemDTO, error) {
	return &items.ItemDTO{}, nil
}

func (stubWardrobeService) LogWear(context.Context, uuid.UUID, uuid.UUID, items.LogWearInput, string) (*items.ItemDTO, *items.WearLogDTO, error) {
	return &items.ItemDTO{}, &items.WearLogDTO{}, nil
}

func (stubWardrobeService) WearLogs(context.Context, uuid.UUID) ([]*items.WearLogDTO, error) {
	return nil, nil
}

func (stubWardrobeService) Analyze(context.Context, items.AnalyzeInput, string) (*items.AnalyzeResult, error) {
	return &items.AnalyzeResult{}, nil
}

func (stubWardrobeService) Wardrobe(context.Context, uuid.UUID, string) ([]stylist.WardrobeItem, error) {
	return []stylist.WardrobeItem{{ID: "item-1", Name: "Denim jacket"}}, nil
}

type stubStylistService struct{}

func (stubStylistService) Combinations(context.Context, []stylist.WardrobeItem) (*stylist.CombinationsResult, error) {
	return &stylist.CombinationsResult{}, nil
}

func (stubStylistService) NextPurchases(context.Context, []stylist.WardrobeItem) (*stylist.PurchasesResult, error) {
	return &stylist.PurchasesResult{}, nil
}

func (stubStylistService) WeatherOutfitFor(context.Context, []stylist.WardrobeItem, string) (*stylist.WeatherOutfitResult, error) {
	return &stylist.WeatherOutfitResult{}, nil
}

type stubWeatherService struct{}

func (stubWeatherService) LookupLocation(context.Context, string) weather.Location {
	return weather.Location{City: "New York", Source: "fallback"}
}

func (stubWeatherService) CurrentWeather(context.Context, float64, float64) (*weather.Weather, error) {
	temp := 18.0
	return &weather.Weather{TemperatureC: &temp, Description: "clear sky"}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "wardrobe-backend",
			ExpirationMinutes: 60,
		},
		Uploads: config.UploadsConfig{Dir: t.TempDir(), MaxSizeBytes: 1 << 20},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		prometheus.NewRegistry(),
		stubAuthService{},
		stubWardrobeService{},
		stubStylistService{},
		stubWeatherService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), uuid.New())
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestItemsRejectMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/items/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestItemsSucceedWithJWT(t *testing.T) {
	cfg := testConfig(t)
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/items/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestAuthLoginRoute(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	body := strings.NewReader(`{"email":"ana@example.com","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "login-token") {
		t.Fatalf("expected token in body got %s", resp.Body.String())
	}
}

func TestStylistRoutesWiredBehindAuth(t *testing.T) {
	cfg := testConfig(t)
	router := newTestRouter(t, cfg)

	for _, path := range []string{
		"/api/stylist/combinations",
		"/api/stylist/next-purchase",
		"/api/stylist/weather-outfit",
	} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d body %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestUploadsDirectoryListingBlocked(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/uploads/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for directory listing got %d", resp.Code)
	}
}

func TestOutfitsRouteWired(t *testing.T) {
	cfg := testConfig(t)
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/outfits/generate-weather", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
}
