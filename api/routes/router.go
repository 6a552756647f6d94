package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shyammm53/wardrobe-backend/api/controllers"
	"github.com/shyammm53/wardrobe-backend/api/middleware"
	"github.com/shyammm53/wardrobe-backend/internal/auth"
	"github.com/shyammm53/wardrobe-backend/pkg/config"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	"github.com/shyammm53/wardrobe-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health probes, metrics, static
// uploads, and the authenticated API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	metricsRegistry prometheus.Gatherer,
	authService auth.Service,
	wardrobeService controllers.WardrobeService,
	stylistService controllers.StylistService,
	weatherService controllers.WeatherService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Handle("/uploads/*", uploadsHandler(cfg.Uploads.Dir))

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, redisClient, logg)).
			Post("/signup", controllers.AuthSignup(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).
			Get("/me", controllers.AuthMe(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemsList(wardrobeService, logg))
			r.Post("/upload", controllers.ItemsUpload(wardrobeService, cfg.Uploads.MaxSizeBytes, logg))
			r.Get("/wear/logs", controllers.ItemsWearLogs(wardrobeService, logg))
			r.Get("/{id}", controllers.ItemsGet(wardrobeService, logg))
			r.Put("/{id}", controllers.ItemsUpdate(wardrobeService, logg))
			r.Delete("/{id}", controllers.ItemsDelete(wardrobeService, logg))
			r.Put("/{id}/tags", controllers.ItemsSetTags(wardrobeService, logg))
			r.Post("/{id}/wear", controllers.ItemsLogWear(wardrobeService, logg))
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/analyze", controllers.AIAnalyze(wardrobeService, logg))
		})

		r.Route("/stylist", func(r chi.Router) {
			r.Post("/combinations", controllers.StylistCombinations(wardrobeService, stylistService, logg))
			r.Post("/next-purchase", controllers.StylistNextPurchases(wardrobeService, stylistService, logg))
			r.Post("/weather-outfit", controllers.StylistWeatherOutfit(wardrobeService, stylistService, logg))
		})

		r.Route("/outfits", func(r chi.Router) {
			r.Get("/generate-weather", controllers.OutfitGenerateWeather(weatherService, logg))
		})
	})

	return r
}

// uploadsHandler serves stored images without directory listings.
func uploadsHandler(dir string) http.Handler {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(filepath.Clean(dir))))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
