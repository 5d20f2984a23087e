package weather

import "time"

// forecastResponse mirrors the parts of the Open-Meteo forecast payload in use.
type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Current   struct {
		Time                string  `json:"time"`
		Temperature         float64 `json:"temperature_2m"`
		Humidity            float64 `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		WeatherCode         int     `json:"weather_code"`
		WindSpeed           float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time                     []string   `json:"time"`
		WeatherCode              []int      `json:"weather_code"`
		TempMax                  []float64  `json:"temperature_2m_max"`
		TempMin                  []float64  `json:"temperature_2m_min"`
		PrecipitationProbability []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

type geocodeResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Country     string  `json:"country"`
		CountryCode string  `json:"country_code"`
		Admin1      string  `json:"admin1"`
		Timezone    string  `json:"timezone"`
	} `json:"results"`
}

func (r forecastResponse) toForecast(units Units) *Forecast {
	f := &Forecast{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
		Units:     units,
		Current: Current{
			Time:                r.Current.Time,
			Temperature:         r.Current.Temperature,
			ApparentTemperature: r.Current.ApparentTemperature,
			Humidity:            r.Current.Humidity,
			WindSpeed:           r.Current.WindSpeed,
			WeatherCode:         r.Current.WeatherCode,
			Description:         Describe(r.Current.WeatherCode),
		},
		Daily:     make([]Day, 0, len(r.Daily.Time)),
		FetchedAt: time.Now(),
	}

	// the daily arrays are parallel; tolerate short ones
	for i, date := range r.Daily.Time {
		day := Day{Date: date}
		if i < len(r.Daily.WeatherCode) {
			day.WeatherCode = r.Daily.WeatherCode[i]
		}
		if i < len(r.Daily.TempMax) {
			day.TempMax = r.Daily.TempMax[i]
		}
		if i < len(r.Daily.TempMin) {
			day.TempMin = r.Daily.TempMin[i]
		}
		if i < len(r.Daily.PrecipitationProbability) {
			day.PrecipitationProbability = r.Daily.PrecipitationProbability[i]
		}
		day.Description = Describe(day.WeatherCode)
		f.Daily = append(f.Daily, day)
	}
	return f
}
