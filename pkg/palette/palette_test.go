package palette

import (
	"fmt"
	"testing"

	"github.com/matzehuels/choropleth/pkg/errors"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"default", DefaultRamp, "greens", false},
		{"uppercase", "Blues", "blues", false},
		{"padded", "  reds ", "reds", false},
		{"unknown", "viridis", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Lookup(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidPalette) {
					t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPalette)
				}
				return
			}
			if r.Name != tt.want {
				t.Errorf("Name = %q, want %q", r.Name, tt.want)
			}
		})
	}
}

func TestRampEndpoints(t *testing.T) {
	r, err := Lookup("greens")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.At(0); got != "#f7fcf5" {
		t.Errorf("At(0) = %s, want #f7fcf5", got)
	}
	if got := r.At(1); got != "#00441b" {
		t.Errorf("At(1) = %s, want #00441b", got)
	}
	if got := r.At(-3); got != r.At(0) {
		t.Errorf("At(-3) = %s, want clamp to %s", got, r.At(0))
	}
	if got := r.At(7); got != r.At(1) {
		t.Errorf("At(7) = %s, want clamp to %s", got, r.At(1))
	}
	// 0.125 sits exactly on the second stop.
	if got := r.At(0.125); got != "#e5f5e0" {
		t.Errorf("At(0.125) = %s, want #e5f5e0", got)
	}
}

func TestSample(t *testing.T) {
	r, _ := Lookup("greens")

	for _, k := range []int{1, 2, 5, 9, 12} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			colors := Sample(r, k)
			if len(colors) != k {
				t.Fatalf("len = %d, want %d", len(colors), k)
			}
			if colors[0] != r.At(0) {
				t.Errorf("first = %s, want lightest %s", colors[0], r.At(0))
			}
			if k > 1 && colors[k-1] != r.At(0.8) {
				t.Errorf("last = %s, want %s", colors[k-1], r.At(0.8))
			}
			seen := map[Color]bool{}
			for _, c := range colors {
				if seen[c] {
					t.Errorf("duplicate color %s in %v", c, colors)
				}
				seen[c] = true
			}
		})
	}

	if got := Sample(r, 0); got != nil {
		t.Errorf("Sample(0) = %v, want nil", got)
	}
}

func TestSampleDarkens(t *testing.T) {
	r, _ := Lookup("blues")
	colors := Sample(r, 9)
	prev := 256 * 3
	for i, c := range colors {
		cr, cg, cb := c.RGB()
		sum := int(cr) + int(cg) + int(cb)
		if sum > prev {
			t.Errorf("color %d (%s) is lighter than color %d", i, c, i-1)
		}
		prev = sum
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Color
		wantErr bool
	}{
		{"#EEE", "#eeeeee", false},
		{"#FFFFFF", "#ffffff", false},
		{"087ED8", "#087ed8", false},
		{" #abc ", "#aabbcc", false},
		{"rgb(8,126,216)", "", true},
		{"#12345", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	r, _ := Lookup("greys")
	colors := Sample(r, 5)

	if err := Validate(colors, DefaultFallback); err != nil {
		t.Errorf("Validate(default fallback) = %v, want nil", err)
	}

	err := Validate(colors, colors[0])
	if err == nil {
		t.Fatal("Validate(fallback == class 0) = nil, want error")
	}
	if !errors.Is(err, errors.ErrCodeInvalidPalette) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPalette)
	}

	upper := Color("#FFFFFF")
	if err := Validate(colors, upper); err == nil {
		t.Error("Validate is case-sensitive, want case-insensitive match on #ffffff")
	}
}

func TestColorRGB(t *testing.T) {
	r, g, b := DefaultHover.RGB()
	if r != 8 || g != 126 || b != 216 {
		t.Errorf("DefaultHover.RGB() = (%d,%d,%d), want (8,126,216)", r, g, b)
	}
	r, g, b = Color("nope").RGB()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("malformed RGB() = (%d,%d,%d), want zeros", r, g, b)
	}
}

func ExampleSample() {
	r, _ := Lookup("greens")
	colors := Sample(r, 3)
	fmt.Println(len(colors), colors[0])
	// Output: 3 #f7fcf5
}
