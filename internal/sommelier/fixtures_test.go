package sommelier

// ---------- shared fixtures ----------

func sens(a Axis, v float64) *Sensory {
	s := Sensory{}.With(a, v)
	return &s
}

func giftFlow() Flow {
	return Flow{
		ID:          "gift",
		Name:        "Hediye",
		Trigger:     "hediye, gift",
		StartStepID: "who",
		Active:      true,
		PersonaType: "gifter",
		Steps: []Step{
			&QuestionStep{
				ID:       "who",
				Question: Text{LangTR: "Kimin için?", LangEN: "Who is it for?"},
				Options: []Option{
					{Label: Text{LangTR: "Annem", LangEN: "My mother"}, NextStepID: "mom", Sensory: sens(AxisSweetness, 2)},
					{Label: Text{LangTR: "Arkadaşım", LangEN: "A friend"}, NextStepID: "friend"},
					{Label: Text{LangTR: "Vazgeç", LangEN: "Never mind"}},
				},
			},
			&ResultStep{
				ID:                     "mom",
				Message:                Text{LangTR: "Annen için sütlü pralin kutusu.", LangEN: "A milk praline box for your mother."},
				ProductRecommendations: []string{"p1", "p2", "p3", "p4", "p5"},
				Metadata:               &ResultMetadata{TriggerGiftMode: true, IsWeatherSensitive: true, PersonaHint: "family"},
			},
			&QuestionStep{
				ID:       "friend",
				Question: Plain("Ne tarz seviyor?"),
				Options: []Option{
					{Label: Plain("Bitter"), NextStepID: "dark", Sensory: sens(AxisIntensity, 3)},
					{Label: Plain("Meyveli"), NextStepID: "fruit", Sensory: sens(AxisFruitiness, 2)},
				},
			},
			&ResultStep{
				ID:                     "dark",
				Message:                Plain("Yoğun bitter seçkisi."),
				ProductRecommendations: []string{"p1", "p2", "p3", "p4", "p5"},
			},
			&ResultStep{
				ID:                     "fruit",
				Message:                Plain("Meyveli seçki."),
				ProductRecommendations: []string{"p3"},
			},
		},
	}
}

func shippingFlow() Flow {
	return Flow{
		ID:          "shipping",
		Trigger:     "kargo",
		StartStepID: "ship",
		Active:      true,
		Steps: []Step{
			&QuestionStep{
				ID:       "ship",
				Question: Plain("Sipariş numaran var mı?"),
				Options: []Option{
					{Label: Plain("Evet"), NextStepID: "yes"},
					{Label: Plain("Hayır"), NextStepID: "no"},
				},
			},
			&ResultStep{ID: "yes", Message: Plain("Takip bağlantısı e-postanda.")},
			&ResultStep{ID: "no", Message: Plain("Hesabım sayfasından bakabilirsin.")},
		},
	}
}

func catalog() []Product {
	return []Product{
		{ID: "p1", Title: "Sütlü Pralin", Description: "Kremalı sütlü çikolata", Price: 120, Category: "Pralin", InStock: true},
		{ID: "p2", Title: "Bitter %85", Description: "Yoğun kakao", Price: 150, Category: "Tablet", InStock: true},
		{ID: "p3", Title: "Meyve Bahçesi", Description: "Ahududu ve çilek", Price: 90, Category: "Hediye Kutusu", InStock: true},
		{ID: "p4", Title: "Dark Truffle", Description: "Bitter ganaj", Price: 200, Category: "Trüf", InStock: true},
		{ID: "p5", Title: "Beyaz Rüya", Description: "White chocolate", Price: 80, Category: "Tablet", InStock: false},
	}
}

// fixedRand always returns n, clamped into range.
type fixedRand int

func (f fixedRand) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}
