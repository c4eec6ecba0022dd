package chart

import (
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#000099", color.RGBA{0, 0, 0x99, 255}, false},
		{"FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"#fff", color.RGBA{255, 255, 255, 255}, false},
		{"#11223380", color.RGBA{0x11, 0x22, 0x33, 0x80}, false},
		{" #333333 ", color.RGBA{0x33, 0x33, 0x33, 255}, false},
		{"#12345", color.RGBA{}, true},
		{"#GG0000", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorTableResolve(t *testing.T) {
	factions := DefaultFactionColors()

	if got := factions.Resolve("COSMIC"); got != (color.RGBA{0, 0, 0x99, 255}) {
		t.Errorf("COSMIC = %v", got)
	}
	if got := factions.Resolve("UNKNOWN"); got != (color.RGBA{0x33, 0x33, 0x33, 255}) {
		t.Errorf("unknown faction = %v, want fallback", got)
	}
	if got := factions.Resolve(""); got != (color.RGBA{0x33, 0x33, 0x33, 255}) {
		t.Errorf("unowned = %v, want fallback", got)
	}

	broken := ColorTable{Colors: map[string]string{"X": "nope"}, Fallback: "#010203"}
	if got := broken.Resolve("X"); got != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("unparseable entry = %v, want fallback", got)
	}

	empty := ColorTable{}
	if got := empty.Resolve("anything"); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("empty table = %v, want opaque black", got)
	}
}

func TestColorTableMerge(t *testing.T) {
	base := ColorTable{Colors: map[string]string{"A": "#111111", "B": "#222222"}, Fallback: "#000000"}
	over := ColorTable{Colors: map[string]string{"B": "#999999", "C": "#333333"}}

	merged := base.Merge(over)

	if merged.Colors["A"] != "#111111" || merged.Colors["B"] != "#999999" || merged.Colors["C"] != "#333333" {
		t.Errorf("unexpected merge result: %v", merged.Colors)
	}
	if merged.Fallback != "#000000" {
		t.Errorf("fallback = %q, want base fallback kept", merged.Fallback)
	}
	if base.Colors["B"] != "#222222" {
		t.Error("Merge modified the receiver")
	}
	if !merged.Has("C") || merged.Has("D") {
		t.Error("Has() mismatch")
	}
}

func TestPremultiply(t *testing.T) {
	if got := premultiply(color.RGBA{200, 100, 50, 255}); got != (color.RGBA{200, 100, 50, 255}) {
		t.Errorf("opaque colour changed: %v", got)
	}
	if got := premultiply(color.RGBA{200, 100, 50, 0}); got != (color.RGBA{}) {
		t.Errorf("transparent = %v", got)
	}
	got := premultiply(color.RGBA{255, 255, 255, 128})
	if got.R != 128 || got.A != 128 {
		t.Errorf("half alpha = %v", got)
	}
}
