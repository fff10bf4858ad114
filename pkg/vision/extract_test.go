package vision

import (
	"errors"
	"testing"
)

func TestExtractJSONArray(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		count int
	}{
		{
			"fenced json block",
			"Here are the detections:\n```json\n[{\"label\":\"chair\"}]\n```\nDone.",
			1,
		},
		{
			"plain fenced block",
			"```\n[{\"label\":\"a\"},{\"label\":\"b\"}]\n```",
			2,
		},
		{
			"bare array",
			`[{"label":"chair"},{"label":"door"},{"label":"wall"}]`,
			3,
		},
		{
			"array with surrounding prose",
			`Sure! [{"label":"chair"}] Hope that helps.`,
			1,
		},
		{
			"empty array",
			"```json\n[]\n```",
			0,
		},
		{
			"json fence preferred over plain fence",
			"```\nnot json\n```\n```json\n[{\"label\":\"x\"}]\n```",
			1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := ExtractJSONArray(tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != tc.count {
				t.Errorf("got %d items, want %d", len(items), tc.count)
			}
		})
	}
}

func TestExtractJSONArray_Malformed(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here at all",
		`{"label":"an object, not an array"}`,
		"```json\n{\"not\": \"an array\"}\n```",
		"[{broken",
	} {
		_, err := ExtractJSONArray(text)
		if !errors.Is(err, ErrResponseFormat) {
			t.Errorf("%q: got %v, want ErrResponseFormat", text, err)
		}
	}
}
