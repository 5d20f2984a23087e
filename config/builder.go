package config

import (
	"fmt"
	"sort"

	"github.com/jpalmerr/tileboard"
)

// BuildWidgets converts parsed configuration into SDK Widget objects.
//
// It processes both direct widgets and grids, returning a combined slice.
// Grid dimensions are expanded via cartesian product.
func BuildWidgets(cfg *Config) ([]tileboard.Widget, error) {
	var widgets []tileboard.Widget

	for i, wc := range cfg.Widgets {
		w, err := buildWidget(wc)
		if err != nil {
			return nil, fmt.Errorf("widgets[%d] (%s): %w", i, wc.ID, err)
		}
		widgets = append(widgets, w)
	}

	for i, gc := range cfg.Grids {
		gridWidgets, err := buildGrid(gc)
		if err != nil {
			return nil, fmt.Errorf("grids[%d] (%s): %w", i, gc.ID, err)
		}
		widgets = append(widgets, gridWidgets...)
	}

	return widgets, nil
}

// BoardOptions returns the SDK options for the board-level settings.
func BoardOptions(cfg *Config) []tileboard.Option {
	opts := []tileboard.Option{
		tileboard.WithPort(cfg.Port),
		tileboard.WithTitle(cfg.Title),
	}
	if cfg.Cache.SweepSchedule != "" {
		opts = append(opts, tileboard.WithSweepSchedule(cfg.Cache.SweepSchedule))
	}
	if cfg.Cache.MaxEntries > 0 {
		opts = append(opts, tileboard.WithCacheSize(cfg.Cache.MaxEntries))
	}
	return opts
}

// buildWidget converts a single WidgetConfig to an SDK Widget.
func buildWidget(wc WidgetConfig) (tileboard.Widget, error) {
	var opts []tileboard.WidgetOption

	if wc.Name != "" {
		opts = append(opts, tileboard.WithName(wc.Name))
	}
	if wc.Interval != 0 {
		opts = append(opts, tileboard.WithInterval(wc.Interval.Duration()))
	}

	switch wc.Type {
	case TypeHealth:
		if wc.Method != "" {
			opts = append(opts, tileboard.WithMethod(wc.Method))
		}
		if len(wc.Headers) > 0 {
			opts = append(opts, tileboard.WithHeaders(mapToKeyValuePairs(wc.Headers)...))
		}
		if wc.Body != "" {
			opts = append(opts, tileboard.WithBody(wc.Body))
		}
		if wc.Timeout != 0 {
			opts = append(opts, tileboard.WithTimeout(wc.Timeout.Duration()))
		}
		if len(wc.AcceptedStatusCodes) > 0 {
			opts = append(opts, tileboard.WithAcceptedStatusCodes(wc.AcceptedStatusCodes...))
		}
		return tileboard.NewHealthWidget(wc.ID, wc.URL, opts...)

	case TypeTCP:
		if wc.Timeout != 0 {
			opts = append(opts, tileboard.WithTimeout(wc.Timeout.Duration()))
		}
		return tileboard.NewTCPWidget(wc.ID, wc.Host, wc.Port, opts...)

	case TypeRSS:
		if wc.Limit != 0 {
			opts = append(opts, tileboard.WithLimit(wc.Limit))
		}
		return tileboard.NewRSSWidget(wc.ID, wc.URL, opts...)

	case TypeWeather:
		if wc.Units != "" {
			opts = append(opts, tileboard.WithUnits(tileboard.Units(wc.Units)))
		}
		if wc.Days != 0 {
			opts = append(opts, tileboard.WithDays(wc.Days))
		}
		if wc.Location != "" {
			return tileboard.NewWeatherWidget(wc.ID, wc.Location, opts...)
		}
		return tileboard.NewWeatherWidgetAt(wc.ID, *wc.Latitude, *wc.Longitude, opts...)
	}

	return tileboard.Widget{}, fmt.Errorf("unknown type %q", wc.Type)
}

// buildGrid expands a GridConfig into health widgets.
func buildGrid(gc GridConfig) ([]tileboard.Widget, error) {
	opts := []tileboard.GridOption{
		tileboard.WithURLTemplate(gc.URLTemplate),
		tileboard.WithDimensions(gc.Dimensions),
	}
	if gc.Method != "" {
		opts = append(opts, tileboard.WithGridMethod(gc.Method))
	}
	if gc.Timeout != 0 {
		opts = append(opts, tileboard.WithGridTimeout(gc.Timeout.Duration()))
	}
	if len(gc.Headers) > 0 {
		opts = append(opts, tileboard.WithGridHeaders(mapToKeyValuePairs(gc.Headers)...))
	}
	if len(gc.AcceptedStatusCodes) > 0 {
		opts = append(opts, tileboard.WithGridAcceptedStatusCodes(gc.AcceptedStatusCodes...))
	}
	if gc.Interval != 0 {
		opts = append(opts, tileboard.WithGridInterval(gc.Interval.Duration()))
	}

	return tileboard.NewHealthGrid(gc.ID, gc.Name, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
