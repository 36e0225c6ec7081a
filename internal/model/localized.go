package model

import "encoding/json"

// LocalizedText maps a locale tag (e.g. "ru", "lv") to a translated
// string.  It replaces the legacy two-shape representation where a
// title could arrive either as a plain string or as a per-locale
// object.  Normalization happens once at the JSON boundary; the rest
// of the code only ever sees the map form.
type LocalizedText map[string]string

// defaultLocales are the locales a bare string is expanded into when a
// client sends the legacy single-string shape.
var defaultLocales = []string{"ru", "lv"}

// UnmarshalJSON accepts either a JSON object of locale→string pairs or
// a bare string.  A bare string is copied into every default locale so
// downstream code never needs to branch on shape.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		*t = m
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out := make(LocalizedText, len(defaultLocales))
	for _, loc := range defaultLocales {
		out[loc] = s
	}
	*t = out
	return nil
}

// Get returns the text for the given locale, falling back to the first
// default locale that has a value, then to any value at all.
func (t LocalizedText) Get(locale string) string {
	if v, ok := t[locale]; ok && v != "" {
		return v
	}
	for _, loc := range defaultLocales {
		if v, ok := t[loc]; ok && v != "" {
			return v
		}
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsEmpty reports whether no locale carries a non-empty value.
func (t LocalizedText) IsEmpty() bool {
	for _, v := range t {
		if v != "" {
			return false
		}
	}
	return true
}
