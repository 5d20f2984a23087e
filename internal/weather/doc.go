// Package weather fetches forecasts and geocodes place names using the
// Open-Meteo APIs.
//
// Forecasts are cached for [ForecastTTL] keyed by coordinates rounded to two
// decimals, units and day count. Geocoding results are cached for
// [GeocodeTTL] keyed by the lowercased query, result count and language.
// Widgets in the same area therefore share one upstream request per window.
package weather
