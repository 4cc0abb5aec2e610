package agent

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			in:    `{"plan": []}`,
			want:  `{"plan": []}`,
			found: true,
		},
		{
			name:  "wrapped in prose",
			in:    "Sure, here is the plan:\n{\"plan\": [{\"type\": \"add_task\"}]}\nLet me know!",
			want:  `{"plan": [{"type": "add_task"}]}`,
			found: true,
		},
		{
			name:  "code fence",
			in:    "```json\n{\"plan\": []}\n```",
			want:  `{"plan": []}`,
			found: true,
		},
		{
			name:  "nested objects",
			in:    `x {"a": {"b": {"c": 1}}} y`,
			want:  `{"a": {"b": {"c": 1}}}`,
			found: true,
		},
		{
			name:  "braces inside string",
			in:    `{"note": "use {curly} braces"}`,
			want:  `{"note": "use {curly} braces"}`,
			found: true,
		},
		{
			name:  "escaped quote inside string",
			in:    `{"note": "she said \"hi\" }--"} trailing`,
			want:  `{"note": "she said \"hi\" }--"}`,
			found: true,
		},
		{
			name:  "no object",
			in:    "no json here",
			found: false,
		},
		{
			name:  "unbalanced",
			in:    `{"plan": [`,
			found: false,
		},
		{
			name:  "empty input",
			in:    "",
			found: false,
		},
		{
			name:  "first of several objects",
			in:    `{"a": 1} {"b": 2}`,
			want:  `{"a": 1}`,
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractJSONObject(tt.in)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
