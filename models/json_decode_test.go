package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
	}{
		{"escaped solidus", `"a\/b"`, "a/b"},
		{"unicode escape", `"\u00c9vora"`, "Évora"},
		{"surrogate pair", `"\ud83d\ude00"`, "😀"},
		{"number", `-1.5e2`, -150.0},
		{"literals", `[true, false, null]`, []any{true, false, nil}},
		{"empty containers", `{"a": [], "b": {}}`, Object{{Key: "a", Value: []any{}}, {Key: "b", Value: Object{}}}},
		{"order kept", `{"z": 1, "a": 2, "m": 3}`, Object{{Key: "z", Value: 1.0}, {Key: "a", Value: 2.0}, {Key: "m", Value: 3.0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJSON([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSONRejectsMalformed(t *testing.T) {
	for _, in := range []string{`{"a": }`, `[1, 2`, `{"a": 1} {"b": 2}`, `"bad \q escape"`, ``} {
		_, err := DecodeJSON([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestDecodeDictionaryHonorsJSONEscapes(t *testing.T) {
	d, err := DecodeDictionary([]byte(`{"Infos": {"ID": "clinic\/P001", "AudioFile": "C:\\clips\/a.wav"}}`))
	require.NoError(t, err)
	assert.Equal(t, "clinic-P001", d.Identity())

	infos, _ := d.Sections.Get(InfosSection)
	audio, _ := infos.(Object).Get("AudioFile")
	assert.Equal(t, `C:\clips/a.wav`, audio)
}
