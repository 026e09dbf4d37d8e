package views

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gait-logger/models"
)

const (
	// Delimiter separates fields in every file this logger writes.
	Delimiter = ";"

	// Preamble opens every file: a UTF-8 byte-order mark and Excel's
	// separator directive.
	Preamble = "\ufeffsep=;\n"

	arraySeparator = " | "
	numberPlaces   = 3
	samplePlaces   = 6
)

// exemptKeys are identifier-like fields whose values are written verbatim.
var exemptKeys = map[string]struct{}{
	"diagnostic":        {},
	"id":                {},
	"audiofile":         {},
	"audio_player_type": {},
}

// dateKeys hold [year, month, day] triples.
var dateKeys = map[string]struct{}{
	"Birthday": {},
	"Date":     {},
}

// Escape wraps s in double quotes, doubling embedded quotes.
func Escape(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Capitalize normalizes a snapshot value. Values under exempt keys pass
// through untouched. Otherwise strings get an upper-case first letter and a
// lower-case rest, numbers are rounded to three decimals, and arrays become
// their formatted elements joined with " | ".
func Capitalize(value any, key string) any {
	if _, ok := exemptKeys[strings.ToLower(key)]; ok {
		return value
	}
	switch v := value.(type) {
	case string:
		return capitalizeText(v)
	case []any:
		parts := make([]string, len(v))
		for i, el := range v {
			if f, ok := models.AsFloat(el); ok {
				parts[i] = models.FormatNumber(models.Round(f, numberPlaces))
				continue
			}
			parts[i] = Cell(el)
		}
		return strings.Join(parts, arraySeparator)
	default:
		if f, ok := models.AsFloat(v); ok {
			return models.Round(f, numberPlaces)
		}
		return value
	}
}

func capitalizeText(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

// FormatDate renders a [year, month, day] triple under a date key as
// YYYY-MM-DD. Anything else is returned unchanged.
func FormatDate(key string, value any) any {
	if _, ok := dateKeys[key]; !ok {
		return value
	}
	arr, ok := value.([]any)
	if !ok || len(arr) != 3 {
		return value
	}
	var ymd [3]int
	for i, el := range arr {
		f, ok := models.AsFloat(el)
		if !ok {
			return value
		}
		ymd[i] = int(f)
	}
	return fmt.Sprintf("%d-%02d-%02d", ymd[0], ymd[1], ymd[2])
}

// FormatSubKeyName turns snake_case subfield names into spaced words with
// upper-case initials: "heart_rate" -> "Heart Rate".
func FormatSubKeyName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// Cell renders a formatted value as cell text. Arrays and nested objects
// that reach it unformatted (exempt keys) are joined with " | ", objects as
// key: value pairs.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = Cell(el)
		}
		return strings.Join(parts, arraySeparator)
	case models.Object:
		parts := make([]string, len(x))
		for i, m := range x {
			parts[i] = m.Key + ": " + Cell(m.Value)
		}
		return strings.Join(parts, arraySeparator)
	default:
		if f, ok := models.AsFloat(x); ok {
			return models.FormatNumber(f)
		}
		return fmt.Sprint(x)
	}
}

// RenderRow renders one streaming sample: the timestamp, then the enabled
// columns. Numeric values get six decimals except the cycle marker, which is
// written as-is; non-numeric values pass through. The row ends in a newline.
func RenderRow(cfg models.SensorConfiguration, ts string, s models.Sample) string {
	fields := []string{ts}
	for _, c := range cfg.EnabledColumns() {
		fields = append(fields, sampleCell(c, s.Field(c)))
	}
	return JoinFields(fields) + "\n"
}

func sampleCell(c models.Column, v any) string {
	f, ok := models.AsFloat(v)
	if !ok {
		return Cell(v)
	}
	if c == models.ColCycle {
		return models.FormatNumber(f)
	}
	return models.FormatFixed(f, samplePlaces)
}
