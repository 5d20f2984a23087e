package tileboard

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"
	"unicode"
)

// NewHealthGrid creates one health widget per combination of dimension
// values, using cartesian product expansion over a URL template.
//
// The URL template uses Go's text/template syntax. Dimension values are
// URL-encoded before interpolation. Missing template keys cause an error.
//
// Each widget's id is baseID followed by the slugged dimension values, and
// its name is "Base Name (val1/val2)", with values ordered by sorted key.
//
// Example:
//
//	widgets, err := tileboard.NewHealthGrid("api", "API Health",
//	    tileboard.WithURLTemplate("https://api.com/health?region={{.region}}"),
//	    tileboard.WithDimensions(map[string][]string{
//	        "region": {"us-east", "eu-west"},
//	    }),
//	)
//	// widgets "api-us-east" and "api-eu-west"
func NewHealthGrid(baseID, baseName string, opts ...GridOption) ([]Widget, error) {
	if strings.TrimSpace(baseID) == "" {
		return nil, errors.New("base id cannot be empty")
	}
	if strings.TrimSpace(baseName) == "" {
		baseName = baseID
	}

	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.urlTemplate == "" {
		return nil, errors.New("URL template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	// missingkey=error so typos in the template fail at build time
	tmpl, err := template.New("url").Option("missingkey=error").Parse(cfg.urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	if len(combinations) == 0 {
		return nil, nil
	}

	widgets := make([]Widget, 0, len(combinations))
	seen := make(map[string]bool, len(combinations))
	for _, combo := range combinations {
		urlStr, err := executeTemplate(tmpl, urlEncodeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}

		values := sortedValues(combo)
		id := baseID + "-" + slug(strings.Join(values, "-"))
		if seen[id] {
			return nil, fmt.Errorf("dimension values produce duplicate widget id %q", id)
		}
		seen[id] = true

		wOpts := []WidgetOption{
			WithName(fmt.Sprintf("%s (%s)", baseName, strings.Join(values, "/"))),
		}
		if len(cfg.headers) > 0 {
			wOpts = append(wOpts, WithHeaders(flattenMap(cfg.headers)...))
		}
		if cfg.timeout > 0 {
			wOpts = append(wOpts, WithTimeout(cfg.timeout))
		}
		if cfg.method != "" {
			wOpts = append(wOpts, WithMethod(cfg.method))
		}
		if cfg.interval > 0 {
			wOpts = append(wOpts, WithInterval(cfg.interval))
		}
		if len(cfg.acceptedStatusCodes) > 0 {
			wOpts = append(wOpts, WithAcceptedStatusCodes(cfg.acceptedStatusCodes...))
		}

		w, err := NewHealthWidget(id, urlStr, wOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create widget '%s': %w", id, err)
		}
		widgets = append(widgets, w)
	}

	return widgets, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := sortedKeys(dims)
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}
	result := make([]map[string]string, 0, total)

	// odometer over the value indices, rightmost key fastest
	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedValues returns the combination's values ordered by key.
func sortedValues(combo map[string]string) []string {
	keys := sortedKeys(combo)
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = combo[k]
	}
	return values
}

// urlEncodeMap returns a new map with all values URL-encoded.
func urlEncodeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.QueryEscape(v)
	}
	return result
}

func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// slug lowercases s and replaces runs of anything but letters and digits
// with a single dash.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// flattenMap converts a map to key-value pairs with sorted keys.
func flattenMap(m map[string]string) []string {
	result := make([]string, 0, len(m)*2)
	for _, k := range sortedKeys(m) {
		result = append(result, k, m[k])
	}
	return result
}
