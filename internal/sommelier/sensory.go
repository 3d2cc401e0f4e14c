package sommelier

import (
	"sort"
	"strings"
)

// Axis names one sensory dimension.
type Axis string

const (
	AxisIntensity  Axis = "intensity"
	AxisSweetness  Axis = "sweetness"
	AxisCreaminess Axis = "creaminess"
	AxisFruitiness Axis = "fruitiness"
	AxisAcidity    Axis = "acidity"
	AxisCrunch     Axis = "crunch"
)

// Axes lists the sensory axes in canonical order.
var Axes = []Axis{AxisIntensity, AxisSweetness, AxisCreaminess, AxisFruitiness, AxisAcidity, AxisCrunch}

// Sensory is a six-axis preference vector. Values only ever grow by addition.
type Sensory struct {
	Intensity  float64 `json:"intensity,omitempty"`
	Sweetness  float64 `json:"sweetness,omitempty"`
	Creaminess float64 `json:"creaminess,omitempty"`
	Fruitiness float64 `json:"fruitiness,omitempty"`
	Acidity    float64 `json:"acidity,omitempty"`
	Crunch     float64 `json:"crunch,omitempty"`
}

// Add returns the component-wise sum.
func (s Sensory) Add(d Sensory) Sensory {
	return Sensory{
		Intensity:  s.Intensity + d.Intensity,
		Sweetness:  s.Sweetness + d.Sweetness,
		Creaminess: s.Creaminess + d.Creaminess,
		Fruitiness: s.Fruitiness + d.Fruitiness,
		Acidity:    s.Acidity + d.Acidity,
		Crunch:     s.Crunch + d.Crunch,
	}
}

// Get returns the value of one axis.
func (s Sensory) Get(a Axis) float64 {
	switch a {
	case AxisIntensity:
		return s.Intensity
	case AxisSweetness:
		return s.Sweetness
	case AxisCreaminess:
		return s.Creaminess
	case AxisFruitiness:
		return s.Fruitiness
	case AxisAcidity:
		return s.Acidity
	case AxisCrunch:
		return s.Crunch
	}
	return 0
}

// With returns a copy with axis a set to v.
func (s Sensory) With(a Axis, v float64) Sensory {
	switch a {
	case AxisIntensity:
		s.Intensity = v
	case AxisSweetness:
		s.Sweetness = v
	case AxisCreaminess:
		s.Creaminess = v
	case AxisFruitiness:
		s.Fruitiness = v
	case AxisAcidity:
		s.Acidity = v
	case AxisCrunch:
		s.Crunch = v
	}
	return s
}

// IsZero reports whether no axis is positive.
func (s Sensory) IsZero() bool {
	for _, a := range Axes {
		if s.Get(a) > 0 {
			return false
		}
	}
	return true
}

// axisKeywords are matched against a product's title and description.
var axisKeywords = map[Axis][]string{
	AxisIntensity: {
		"dark", "bitter", "extra bitter", "yoğun", "single origin",
		"70%", "%70", "72%", "%72", "75%", "%75", "80%", "%80", "85%", "%85", "90%", "%90", "99%", "%99",
	},
	AxisSweetness: {
		"milk", "sütlü", "sweet", "tatlı", "karamel", "caramel", "white", "beyaz", "honey",
	},
	AxisCreaminess: {
		"cream", "krem", "ganaj", "ganache", "truffle", "trüf", "butter", "tereyağ", "mousse",
	},
	AxisFruitiness: {
		"fruit", "meyve", "berry", "çilek", "strawberry", "ahududu", "raspberry", "portakal", "orange",
		"vişne", "cherry", "incir", "fig", "mango",
	},
	AxisAcidity: {
		"citrus", "narenciye", "limon", "lemon", "passion", "ekşi", "sour", "yuzu", "lime",
	},
	AxisCrunch: {
		"crunch", "çıtır", "crispy", "gevrek", "fındık", "hazelnut", "badem", "almond", "antep", "pistachio",
		"fıstık", "nut", "kuruyemiş", "nib", "bisküvi", "biscuit",
	},
}

var normalizedAxisKeywords = func() map[Axis][]string {
	out := make(map[Axis][]string, len(axisKeywords))
	for a, list := range axisKeywords {
		for _, k := range list {
			out[a] = append(out[a], Normalize(k))
		}
	}
	return out
}()

// axisHit reports whether the normalized text mentions axis a.
func axisHit(normText string, a Axis) bool {
	for _, k := range normalizedAxisKeywords[a] {
		if strings.Contains(normText, k) {
			return true
		}
	}
	return false
}

// Score rates p against acc: every positive axis whose keywords appear in the
// product's title or description adds value×10.
func Score(p Product, acc Sensory) float64 {
	text := Normalize(p.Title + " " + p.Description)
	score := 0.0
	for _, a := range Axes {
		v := acc.Get(a)
		if v <= 0 {
			continue
		}
		if axisHit(text, a) {
			score += v * 10
		}
	}
	return score
}

// Rank orders products by descending Score, keeping the input order on ties,
// and returns at most limit of them (limit <= 0 means all).
func Rank(products []Product, acc Sensory, limit int) []Product {
	type scored struct {
		p     Product
		score float64
	}
	buf := make([]scored, len(products))
	for i, p := range products {
		buf[i] = scored{p: p, score: Score(p, acc)}
	}
	sort.SliceStable(buf, func(i, j int) bool { return buf[i].score > buf[j].score })
	if limit <= 0 || limit > len(buf) {
		limit = len(buf)
	}
	out := make([]Product, limit)
	for i := 0; i < limit; i++ {
		out[i] = buf[i].p
	}
	return out
}

// TopAxes returns up to n axes with a positive value, highest first.
func TopAxes(acc Sensory, n int) []Axis {
	out := make([]Axis, 0, len(Axes))
	for _, a := range Axes {
		if acc.Get(a) > 0 {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return acc.Get(out[i]) > acc.Get(out[j]) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// sensoryFromText derives a unit query vector from axis keywords in text.
func sensoryFromText(text string) Sensory {
	t := Normalize(text)
	var s Sensory
	for _, a := range Axes {
		if axisHit(t, a) {
			s = s.With(a, 1)
		}
	}
	return s
}

// sensoryReason renders the "why these products" sentence, or "".
func sensoryReason(acc Sensory, lang Lang) string {
	top := TopAxes(acc, 2)
	if len(top) == 0 {
		return ""
	}
	names := make([]string, len(top))
	for i, a := range top {
		names[i] = axisNames[a].Resolve(lang)
	}
	return msg(msgSensoryReason, lang, strings.Join(names, msg(msgAnd, lang)))
}
