// Package weather resolves a caller's approximate location from their IP
// and fetches current conditions from OpenWeatherMap, with a short-lived
// redis cache in front of the upstream API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shyammm53/wardrobe-backend/pkg/config"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
	"github.com/shyammm53/wardrobe-backend/pkg/logger"
	pkgredis "github.com/shyammm53/wardrobe-backend/pkg/redis"
)

const (
	defaultIPAPIBaseURL       = "http://ip-api.com/json"
	defaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	responseSnippetLimit      = 500
)

// Location is the resolved origin of a request. Source is "ip-api" for a
// geolocation hit and "fallback" when the configured default was used.
type Location struct {
	Source  string  `json:"source"`
	IP      string  `json:"ip,omitempty"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Weather is the normalized current-conditions payload.
type Weather struct {
	TemperatureC *float64   `json:"temperature_c"`
	TemperatureF *float64   `json:"temperature_f"`
	FeelsLikeC   *float64   `json:"feels_like_c"`
	Humidity     *float64   `json:"humidity,omitempty"`
	Pressure     *float64   `json:"pressure,omitempty"`
	WindSpeed    *float64   `json:"wind_speed,omitempty"`
	Description  string     `json:"description,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	Conditions   string     `json:"conditions,omitempty"`
	Sunrise      *time.Time `json:"sunrise"`
	Sunset       *time.Time `json:"sunset"`
	Timestamp    time.Time  `json:"timestamp"`
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	WeatherKey(lat, lon float64) string
}

// Service fetches locations and weather.
type Service struct {
	httpClient         *http.Client
	cfg                config.WeatherConfig
	cache              cacheStore
	logg               *logger.Logger
	ipAPIBaseURL       string
	openWeatherBaseURL string
}

// Option configures optional service behavior.
type Option func(*Service)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithIPAPIBaseURL overrides the geolocation endpoint.
func WithIPAPIBaseURL(baseURL string) Option {
	return func(s *Service) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			s.ipAPIBaseURL = trimmed
		}
	}
}

// WithOpenWeatherBaseURL overrides the weather endpoint.
func WithOpenWeatherBaseURL(baseURL string) Option {
	return func(s *Service) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			s.openWeatherBaseURL = trimmed
		}
	}
}

// WithCache replaces the cache backend.
func WithCache(cache cacheStore) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// NewService builds the weather service. The cache may be nil, in which
// case every lookup hits the upstream API.
func NewService(cfg config.WeatherConfig, cache *pkgredis.Client, logg *logger.Logger, opts ...Option) *Service {
	s := &Service{
		httpClient:         &http.Client{Timeout: 10 * time.Second},
		cfg:                cfg,
		logg:               logg,
		ipAPIBaseURL:       defaultIPAPIBaseURL,
		openWeatherBaseURL: defaultOpenWeatherBaseURL,
	}
	if cache != nil {
		s.cache = cache
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// LookupLocation geolocates the client IP. Private and loopback addresses
// skip the lookup, and any upstream failure degrades to the configured
// default location, so this never returns an error.
func (s *Service) LookupLocation(ctx context.Context, clientIP string) Location {
	ip := strings.TrimSpace(clientIP)

	if isLocalAddress(ip) {
		return s.fallbackLocation(ip)
	}

	loc, err := s.geolocate(ctx, ip)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "weather.location_lookup_failed")
		}
		return s.fallbackLocation(ip)
	}
	return loc
}

// CurrentWeather returns conditions for the coordinates, serving from the
// cache when a fresh entry exists.
func (s *Service) CurrentWeather(ctx context.Context, lat, lon float64) (*Weather, error) {
	if strings.TrimSpace(s.cfg.OpenWeatherAPIKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "openweather api key is not configured")
	}

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.WeatherKey(lat, lon)
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var w Weather
			if jsonErr := json.Unmarshal([]byte(cached), &w); jsonErr == nil {
				return &w, nil
			}
		} else if !pkgredis.IsMiss(err) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "weather.cache_read_failed")
		}
	}

	w, err := s.fetchCurrent(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		payload, jsonErr := json.Marshal(w)
		if jsonErr == nil {
			if setErr := s.cache.Set(ctx, cacheKey, payload, s.cfg.CacheTTL); setErr != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", setErr.Error()), "weather.cache_write_failed")
			}
		}
	}

	return w, nil
}

func (s *Service) fallbackLocation(ip string) Location {
	return Location{
		Source:  "fallback",
		IP:      ip,
		City:    s.cfg.DefaultCity,
		Region:  s.cfg.DefaultRegion,
		Country: s.cfg.DefaultCountry,
		Lat:     s.cfg.DefaultLat,
		Lon:     s.cfg.DefaultLon,
	}
}

func (s *Service) geolocate(ctx context.Context, ip string) (Location, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=status,message,lat,lon,city,regionName,country", s.ipAPIBaseURL, url.PathEscape(ip))

	var data struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		City    string  `json:"city"`
		Region  string  `json:"regionName"`
		Country string  `json:"country"`
	}
	if err := s.fetchJSON(ctx, endpoint, &data); err != nil {
		return Location{}, err
	}
	if data.Status != "success" {
		return Location{}, fmt.Errorf("geolocation failed: %s", data.Message)
	}

	return Location{
		Source:  "ip-api",
		IP:      ip,
		City:    data.City,
		Region:  data.Region,
		Country: data.Country,
		Lat:     data.Lat,
		Lon:     data.Lon,
	}, nil
}

func (s *Service) fetchCurrent(ctx context.Context, lat, lon float64) (*Weather, error) {
	endpoint, err := url.Parse(s.openWeatherBaseURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "invalid openweather base url")
	}
	query := endpoint.Query()
	query.Set("lat", fmt.Sprintf("%v", lat))
	query.Set("lon", fmt.Sprintf("%v", lon))
	query.Set("units", "metric")
	query.Set("appid", s.cfg.OpenWeatherAPIKey)
	endpoint.RawQuery = query.Encode()

	var data struct {
		Main *struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
			Pressure  *float64 `json:"pressure"`
		} `json:"main"`
		Wind *struct {
			Speed *float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Sys *struct {
			Sunrise int64 `json:"sunrise"`
			Sunset  int64 `json:"sunset"`
		} `json:"sys"`
		Dt int64 `json:"dt"`
	}
	if err := s.fetchJSON(ctx, endpoint.String(), &data); err != nil {
		return nil, err
	}

	w := &Weather{Timestamp: time.Now().UTC()}

	if data.Main != nil {
		w.TemperatureC = data.Main.Temp
		w.FeelsLikeC = data.Main.FeelsLike
		w.Humidity = data.Main.Humidity
		w.Pressure = data.Main.Pressure
		if data.Main.Temp != nil {
			f := *data.Main.Temp*9/5 + 32
			w.TemperatureF = &f
		}
	}
	if data.Wind != nil {
		w.WindSpeed = data.Wind.Speed
	}
	if len(data.Weather) > 0 {
		w.Conditions = data.Weather[0].Main
		w.Description = data.Weather[0].Description
		w.Icon = data.Weather[0].Icon
	}
	if data.Sys != nil {
		if data.Sys.Sunrise > 0 {
			sunrise := time.Unix(data.Sys.Sunrise, 0).UTC()
			w.Sunrise = &sunrise
		}
		if data.Sys.Sunset > 0 {
			sunset := time.Unix(data.Sys.Sunset, 0).UTC()
			w.Sunset = &sunset
		}
	}
	if data.Dt > 0 {
		w.Timestamp = time.Unix(data.Dt, 0).UTC()
	}

	return w, nil
}

func (s *Service) fetchJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build weather request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute weather request")
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read weather response")
	}

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("weather request failed with status %d", resp.StatusCode)).
			WithDetails(snippet(payload))
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse weather response").
			WithDetails(snippet(payload))
	}
	return nil
}

func isLocalAddress(ip string) bool {
	if ip == "" {
		return true
	}
	normalized := strings.TrimPrefix(ip, "::ffff:")
	return normalized == "::1" ||
		normalized == "127.0.0.1" ||
		normalized == "0.0.0.0" ||
		strings.HasPrefix(normalized, "10.") ||
		strings.HasPrefix(normalized, "192.168.") ||
		strings.HasPrefix(normalized, "172.16.")
}

func snippet(payload []byte) string {
	if len(payload) > responseSnippetLimit {
		payload = payload[:responseSnippetLimit]
	}
	return string(payload)
}
