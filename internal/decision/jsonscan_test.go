package decision

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"action":"none"}`, `{"action":"none"}`, true},
		{"leading and trailing prose", "Sure! {\"a\":1} Hope that helps.", `{"a":1}`, true},
		{"markdown fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, true},
		{"nested", `x {"a":{"b":{"c":3}}} y {"d":4}`, `{"a":{"b":{"c":3}}}`, true},
		{"brace inside string", `{"query":"what is {x}?","n":1}`, `{"query":"what is {x}?","n":1}`, true},
		{"closing brace inside string", `{"query":"}"}`, `{"query":"}"}`, true},
		{"escaped quote inside string", `{"q":"say \"}\" now"} tail`, `{"q":"say \"}\" now"}`, true},
		{"unbalanced prefix then object", `use {braces carefully {"a":1}`, `{"a":1}`, true},
		{"unbalanced only", `{"a":1`, "", false},
		{"none", "I cannot help with that.", "", false},
		{"empty", "", "", false},
		{"first of two", `{"a":1}{"b":2}`, `{"a":1}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.in)
			if ok != tc.ok {
				t.Fatalf("ExtractJSONObject(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("ExtractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
