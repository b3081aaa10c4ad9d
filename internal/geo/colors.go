package geo

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Keypoint is one color stop of a gradient, Pos in [0,1].
type Keypoint struct {
	Col colorful.Color
	Pos float64
}

// Scale is a sorted list of keypoints blended in HCL space.
type Scale []Keypoint

// At returns the color at t, clamped to [0,1].
func (s Scale) At(t float64) colorful.Color {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t <= s[0].Pos {
		return s[0].Col
	}
	if t >= s[len(s)-1].Pos {
		return s[len(s)-1].Col
	}
	for i := 0; i < len(s)-1; i++ {
		c1 := s[i]
		c2 := s[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			u := (t - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Col.BlendHcl(c2.Col, u).Clamped()
		}
	}
	return s[len(s)-1].Col
}

// Hex returns the color at t as #rrggbb.
func (s Scale) Hex(t float64) string {
	return s.At(t).Hex()
}

// Stop is a serializable gradient stop.
type Stop struct {
	Pos   float64 `json:"pos"`
	Color string  `json:"color"`
}

// Stops samples the scale at n evenly spaced positions (n >= 2).
func (s Scale) Stops(n int) []Stop {
	if n < 2 {
		n = 2
	}
	out := make([]Stop, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		out[i] = Stop{Pos: t, Color: s.Hex(t)}
	}
	return out
}

// Normalize maps v from [min,max] to [0,1], clamped. A degenerate range maps to 0.
func Normalize(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	t := (v - min) / (max - min)
	return math.Max(0, math.Min(1, t))
}

func mustParseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("mustParseHex: " + err.Error())
	}
	return c
}

// even builds a scale from evenly spaced hex colors.
func even(hexes ...string) Scale {
	s := make(Scale, len(hexes))
	for i, h := range hexes {
		s[i] = Keypoint{Col: mustParseHex(h), Pos: float64(i) / float64(len(hexes)-1)}
	}
	return s
}

func positioned(stops ...Stop) Scale {
	s := make(Scale, len(stops))
	for i, st := range stops {
		s[i] = Keypoint{Col: mustParseHex(st.Color), Pos: st.Pos}
	}
	return s
}

var scales = map[string]Scale{
	"viridis":  even("#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"),
	"cividis":  even("#00224e", "#123570", "#3b496c", "#575d6d", "#707173", "#8a8678", "#a59c74", "#c3b369", "#e1cc55", "#fee838"),
	"inferno":  even("#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60", "#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4"),
	"magma":    even("#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f", "#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf"),
	"plasma":   even("#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786", "#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"),
	"blues":    even("#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"),
	"reds":     even("#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"),
	"greens":   even("#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476", "#41ab5d", "#238b45", "#006d2c", "#00441b"),
	"ylorrd":   even("#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#bd0026", "#800026"),
	"spectral": even("#9e0142", "#d53e4f", "#f46d43", "#fdae61", "#fee08b", "#ffffbf", "#e6f598", "#abdda4", "#66c2a5", "#3288bd", "#5e4fa2"),
	"earth": positioned(
		Stop{0, "#000082"}, Stop{0.1, "#00b4b4"}, Stop{0.2, "#28d228"},
		Stop{0.4, "#e6e632"}, Stop{0.6, "#784614"}, Stop{1, "#ffffff"}),
	"hot": positioned(
		Stop{0, "#000000"}, Stop{0.3, "#e60000"}, Stop{0.6, "#ffd200"}, Stop{1, "#ffffff"}),
	"jet": positioned(
		Stop{0, "#000083"}, Stop{0.125, "#003caa"}, Stop{0.375, "#05ffff"},
		Stop{0.625, "#ffff00"}, Stop{0.875, "#fa0000"}, Stop{1, "#800000"}),
}

// LookupScale returns the named color scale.
func LookupScale(name string) (Scale, bool) {
	s, ok := scales[name]
	return s, ok
}

// ScaleNames lists the available scales alphabetically.
func ScaleNames() []string {
	names := make([]string, 0, len(scales))
	for n := range scales {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
