package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jpalmerr/tileboard/internal/feeds"
	"github.com/jpalmerr/tileboard/internal/weather"
)

// handleRSS returns a cache-backed feed: GET /api/rss?url=...&limit=N
func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	feedURL := q.Get("url")
	if feedURL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	feed, err := s.deps.Feeds.Fetch(r.Context(), feedURL, feeds.Options{Limit: limit})
	if err != nil {
		if errors.Is(err, feeds.ErrInvalidURL) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("feed fetch failed", "url", feedURL, "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, feed)
}

// handleWeather returns a cache-backed forecast for ?lat=&lon= or
// ?location=, with optional units and days.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := optionalInt(q.Get("days"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid days")
		return
	}
	opts := weather.Options{Units: weather.Units(q.Get("units")), Days: days}

	var forecast *weather.Forecast
	if location := q.Get("location"); location != "" {
		forecast, err = s.deps.Weather.ByLocation(r.Context(), location, opts)
	} else {
		if q.Get("lat") == "" || q.Get("lon") == "" {
			s.writeError(w, http.StatusBadRequest, "lat and lon, or location, are required")
			return
		}
		lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
		lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
		if latErr != nil || lonErr != nil {
			s.writeError(w, http.StatusBadRequest, "lat and lon must be numbers")
			return
		}
		forecast, err = s.deps.Weather.ByCoordinates(r.Context(), lat, lon, opts)
	}
	if err != nil {
		s.writeWeatherError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, forecast)
}

// handleGeocode returns cache-backed geocoding matches for ?q=.
func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := optionalInt(q.Get("count"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid count")
		return
	}

	locs, err := s.deps.Weather.Geocode(r.Context(), q.Get("q"), weather.GeocodeOptions{
		Count:    count,
		Language: q.Get("language"),
	})
	if err != nil {
		s.writeWeatherError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, locs)
}

func (s *Server) writeWeatherError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, weather.ErrQueryTooShort),
		errors.Is(err, weather.ErrInvalidCoordinates),
		errors.Is(err, weather.ErrInvalidUnits):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrLocationNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Warn("weather request failed", "error", err)
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func optionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
