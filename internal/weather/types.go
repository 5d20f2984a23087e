package weather

import "time"

// Units selects the measurement system of a forecast.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Valid reports whether u is a known unit system.
func (u Units) Valid() bool {
	return u == UnitsMetric || u == UnitsImperial
}

// Options tune a forecast request.
type Options struct {
	// Units defaults to UnitsMetric.
	Units Units

	// Days is the number of daily forecasts, 1 to MaxDays. Zero means DefaultDays.
	Days int
}

// GeocodeOptions tune a geocoding request.
type GeocodeOptions struct {
	// Count is the maximum number of results, 1 to MaxGeocodeResults.
	// Zero means DefaultGeocodeResults.
	Count int

	// Language is the result language. Empty means "en".
	Language string
}

// Location is a geocoding match.
type Location struct {
	Name        string  `json:"name"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Region      string  `json:"region,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone,omitempty"`
}

// Current holds the observed conditions.
type Current struct {
	Time                string  `json:"time"`
	Temperature         float64 `json:"temperature"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	Humidity            float64 `json:"humidity"`
	WindSpeed           float64 `json:"wind_speed"`
	WeatherCode         int     `json:"weather_code"`
	Description         string  `json:"description"`
}

// Day is one daily forecast.
type Day struct {
	Date                     string   `json:"date"`
	TempMax                  float64  `json:"temp_max"`
	TempMin                  float64  `json:"temp_min"`
	PrecipitationProbability *float64 `json:"precipitation_probability"`
	WeatherCode              int      `json:"weather_code"`
	Description              string   `json:"description"`
}

// Forecast is the current conditions plus daily forecasts for a point.
type Forecast struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timezone  string    `json:"timezone,omitempty"`
	Units     Units     `json:"units"`
	Current   Current   `json:"current"`
	Daily     []Day     `json:"daily"`
	Location  *Location `json:"location,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// wmoDescriptions maps WMO weather interpretation codes to text.
var wmoDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Describe returns the text for a WMO weather code.
func Describe(code int) string {
	if d, ok := wmoDescriptions[code]; ok {
		return d
	}
	return "Unknown"
}
