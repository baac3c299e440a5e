package facts

import (
	"testing"
)

func TestCanonical_SortedKeys(t *testing.T) {
	got := CanonicalString(Map{
		"zebra": 1.0,
		"alpha": Map{
			"delta": true,
			"beta":  nil,
		},
	})
	want := `{"alpha":{"beta":null,"delta":true},"zebra":1}`
	if got != want {
		t.Errorf("Canonical = %s, want %s", got, want)
	}
}

func TestCanonical_Numbers(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"integral float", 64.0, "64"},
		{"fraction", 0.5, "0.5"},
		{"negative", -3.25, "-3.25"},
		{"int", 42, "42"},
		{"large", 1000000.0, "1000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalString(tt.in); got != tt.want {
				t.Errorf("Canonical(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonical_Deterministic(t *testing.T) {
	m := Map{"b": []any{1.0, "two", nil}, "a": Map{"x": 1.5}}

	first := CanonicalString(m)
	for i := 0; i < 50; i++ {
		if CanonicalString(m) != first {
			t.Fatal("canonical encoding is not deterministic across calls")
		}
	}
}

func TestCanonical_StructsNormalise(t *testing.T) {
	type inner struct {
		B string `json:"b"`
		A int    `json:"a"`
	}

	got := CanonicalString(inner{B: "x", A: 7})
	want := `{"a":7,"b":"x"}`
	if got != want {
		t.Errorf("Canonical(struct) = %s, want %s", got, want)
	}
}

func TestCanonical_NonFiniteRejected(t *testing.T) {
	if _, err := Canonical(Map{"bad": nan()}); err == nil {
		t.Error("Canonical accepted NaN")
	}
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
