package sommelier

import (
	"reflect"
	"testing"
	"testing/quick"
)

func TestSensory_AddCommutes(t *testing.T) {
	toSensory := func(v [6]uint8) Sensory {
		var s Sensory
		for i, a := range Axes {
			s = s.With(a, float64(v[i]))
		}
		return s
	}
	prop := func(seq [][6]uint8) bool {
		fwd, rev := Sensory{}, Sensory{}
		for i := range seq {
			fwd = fwd.Add(toSensory(seq[i]))
			rev = rev.Add(toSensory(seq[len(seq)-1-i]))
		}
		return fwd == rev
	}
	if err := quick.Check(prop, nil); err != nil {
		t.Fatal(err)
	}
	pair := func(a, b [6]uint8) bool {
		d1, d2 := toSensory(a), toSensory(b)
		return Sensory{}.Add(d1).Add(d2) == Sensory{}.Add(d2).Add(d1)
	}
	if err := quick.Check(pair, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSensory_GetWithIsZero(t *testing.T) {
	var s Sensory
	if !s.IsZero() {
		t.Fatal("zero value")
	}
	for i, a := range Axes {
		s = s.With(a, float64(i+1))
	}
	for i, a := range Axes {
		if s.Get(a) != float64(i+1) {
			t.Fatalf("axis %s = %v", a, s.Get(a))
		}
	}
	if s.Get("umami") != 0 || s.With("umami", 5) != s {
		t.Fatal("unknown axis must be ignored")
	}
	if (Sensory{Acidity: -1}).IsZero() != true {
		t.Fatal("negative values are not preferences")
	}
}

func TestScore(t *testing.T) {
	p := Product{Title: "Dark %85", Description: "Fındıklı, kremalı"}
	if got := Score(p, Sensory{Intensity: 2, Crunch: 1, Fruitiness: 4}); got != 30 {
		t.Fatalf("Score = %v, want 30", got)
	}
	if Score(p, Sensory{}) != 0 {
		t.Fatal("zero vector scores zero")
	}
}

func TestRank_ScenarioIntensity(t *testing.T) {
	ps := catalog()
	got := Rank(ps, Sensory{Intensity: 3}, 3)
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	if !reflect.DeepEqual(ids, []string{"p2", "p4", "p1"}) {
		t.Fatalf("Rank = %v", ids)
	}
	if len(Rank(ps, Sensory{}, 0)) != len(ps) {
		t.Fatal("limit <= 0 keeps all")
	}
}

func TestTopAxesAndReason(t *testing.T) {
	acc := Sensory{Sweetness: 1, Crunch: 5, Acidity: 3}
	if got := TopAxes(acc, 2); !reflect.DeepEqual(got, []Axis{AxisCrunch, AxisAcidity}) {
		t.Fatalf("TopAxes = %v", got)
	}
	if sensoryReason(Sensory{}, LangTR) != "" {
		t.Fatal("no reason without preferences")
	}
	want := msg(msgSensoryReason, LangEN, "crunch and acidity")
	if got := sensoryReason(acc, LangEN); got != want {
		t.Fatalf("reason = %q, want %q", got, want)
	}
}

func TestSensoryFromText(t *testing.T) {
	s := sensoryFromText("bitter ve fındıklı bir şey")
	if s.Intensity != 1 || s.Crunch != 1 || s.Sweetness != 0 {
		t.Fatalf("sensoryFromText = %+v", s)
	}
}
