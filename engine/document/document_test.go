package document

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestIsSafeName(t *testing.T) {
	good := []string{"Title", "due date", "a_b-c", "1st", strings.Repeat("x", 64)}
	for _, n := range good {
		if !IsSafeName(n) {
			t.Errorf("IsSafeName(%q) = false, want true", n)
		}
	}
	bad := []string{
		"", " Title", "Title ", "a.b", "__proto__", "Prototype", "constructor",
		"_hidden", "-x", "semi;colon", `quo"te`, strings.Repeat("x", 65), "tab\there",
	}
	for _, n := range bad {
		if IsSafeName(n) {
			t.Errorf("IsSafeName(%q) = true, want false", n)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := Document{"Title": "Dune", "Rating": 5, "Score": 4.5, "Notes": nil, "Raw": json.Number("7")}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := []Document{
		{"Tags": []any{"a"}},
		{"Nested": map[string]any{"x": 1}},
		{"Done": true},
		{"a.b": "x"},
		{"Inf": math.Inf(1)},
	}
	for _, d := range cases {
		err := d.Validate()
		if err == nil {
			t.Errorf("Validate(%v) = nil, want error", d)
			continue
		}
		if _, ok := err.(*ShapeError); !ok {
			t.Errorf("Validate(%v) error type %T, want *ShapeError", d, err)
		}
	}
}

func TestMergeIsShallow(t *testing.T) {
	base := Document{"Title": "Dune", "Author": "Herbert", "Year": 1965}
	merged := base.Merge(Document{"Author": nil, "Year": "", "Genre": "SF"})

	if merged["Title"] != "Dune" {
		t.Fatalf("Title = %v", merged["Title"])
	}
	if v, ok := merged["Author"]; !ok || v != nil {
		t.Fatalf("Author = %v (present=%v), want explicit nil", v, ok)
	}
	if merged["Year"] != "" {
		t.Fatalf("Year = %v, want empty string", merged["Year"])
	}
	if merged["Genre"] != "SF" {
		t.Fatalf("Genre = %v", merged["Genre"])
	}
	if base["Author"] != "Herbert" {
		t.Fatalf("base was mutated: %v", base)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse(`{"Title":"Dune","Rating":10}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d["Title"] != "Dune" {
		t.Fatalf("Title = %v", d["Title"])
	}
	if n, ok := d["Rating"].(json.Number); !ok || n.String() != "10" {
		t.Fatalf("Rating = %#v, want json.Number(10)", d["Rating"])
	}

	for _, raw := range []string{`not json`, `null`, `[1,2]`, `{"a":{"b":1}}`, `{"x.y":1}`} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%s) = nil error, want failure", raw)
		}
	}
}

func TestMarshalRoundTripKeepsNumbers(t *testing.T) {
	s, err := Document{"Rating": 10, "Title": "x"}.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if s != `{"Rating":10,"Title":"x"}` {
		t.Fatalf("Marshal = %s", s)
	}
	if s, _ := Document(nil).Marshal(); s != "{}" {
		t.Fatalf("nil Marshal = %s", s)
	}
}
