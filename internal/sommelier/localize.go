package sommelier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Lang is a supported display language code.
type Lang string

const (
	LangTR Lang = "tr"
	LangEN Lang = "en"

	// DefaultLang is the mandatory entry of every Text.
	DefaultLang = LangTR
)

var supportedLangs = map[Lang]struct{}{LangTR: {}, LangEN: {}}

// ParseLang accepts a BCP-47 tag ("en", "en-US", "TR") and returns the
// supported base language, or DefaultLang.
func ParseLang(s string) Lang {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLang
	}
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLang
	}
	base, _ := tag.Base()
	l := Lang(base.String())
	if _, ok := supportedLangs[l]; ok {
		return l
	}
	return DefaultLang
}

// Text is a localizable string. Resolve falls back to the DefaultLang entry.
type Text map[Lang]string

// Plain wraps s as a Text that only carries the mandatory entry.
func Plain(s string) Text { return Text{DefaultLang: s} }

// Resolve returns the entry for lang, or the DefaultLang entry when lang is
// absent or empty. A Text without the mandatory entry resolves to "".
func (t Text) Resolve(lang Lang) string {
	if v := strings.TrimSpace(t[lang]); v != "" {
		return t[lang]
	}
	return t[DefaultLang]
}

// UnmarshalJSON accepts either a plain JSON string or an object keyed by
// language code.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Plain(s)
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("localized text: %w", err)
	}
	out := make(Text, len(raw))
	for k, v := range raw {
		out[Lang(strings.ToLower(strings.TrimSpace(k)))] = v
	}
	*t = out
	return nil
}

// msgKey identifies an engine-authored message.
type msgKey int

const (
	msgGenericError msgKey = iota
	msgResetHint
	msgDidntUnderstand
	msgResetDone
	msgHowCanIHelp
	msgSwitchFlow
	msgSmartEntry
	msgSensoryReason
	msgGiftNotice
	msgWeatherNotice
	msgAnotherHint
	msgFlowClosed
	msgStepLimit
	msgGreeting
	msgGiftSuggest
	msgRecommendSuggest
	msgBudgetSuggest
	msgBudgetAsk
	msgNoProducts
	msgIngredientInfo
	msgOffTopic
	msgAnd
)

var messages = map[msgKey]Text{
	msgGenericError: {
		LangTR: "Üzgünüm, bir şeyler ters gitti. İstersen baştan başlayabiliriz.",
		LangEN: "Sorry, something went wrong. We can start over if you like.",
	},
	msgResetHint: {
		LangTR: "Baştan başlamak için \"başa dön\" yazabilirsin.",
		LangEN: "Type \"start over\" to begin again.",
	},
	msgDidntUnderstand: {
		LangTR: "Tam anlayamadım, lütfen şunlardan birini seç:",
		LangEN: "I didn't quite get that, please choose one of:",
	},
	msgResetDone: {
		LangTR: "Tamam, baştan başlıyoruz.",
		LangEN: "Okay, let's start over.",
	},
	msgHowCanIHelp: {
		LangTR: "Sana nasıl yardımcı olabilirim? Hediye, tat önerisi ya da bütçene uygun bir çikolata bulabilirim.",
		LangEN: "How can I help? I can find a gift, a taste match or a chocolate that fits your budget.",
	},
	msgSwitchFlow: {
		LangTR: "Anladım, konuyu değiştiriyoruz.",
		LangEN: "Got it, let's switch topics.",
	},
	msgSmartEntry: {
		LangTR: "Harika, %s için bakıyorum.",
		LangEN: "Great, looking for %s.",
	},
	msgSensoryReason: {
		LangTR: "Bu seçimleri %s tercihine göre yaptım.",
		LangEN: "I picked these for your preference for %s.",
	},
	msgGiftNotice: {
		LangTR: "🎁 Hediye modu açıldı: ödeme adımında hediye paketi ve not ekleyebilirsin.",
		LangEN: "🎁 Gift mode is on: you can add gift wrapping and a note at checkout.",
	},
	msgWeatherNotice: {
		LangTR: "☀️ Sıcak havalarda siparişini soğutuculu paketle gönderiyoruz.",
		LangEN: "☀️ In warm weather we ship your order in insulated packaging.",
	},
	msgAnotherHint: {
		LangTR: "Başka bir öneri istersen \"başa dön\" yazman yeterli.",
		LangEN: "Want another recommendation? Just type \"start over\".",
	},
	msgFlowClosed: {
		LangTR: "Tamamdır! Başka bir konuda yardımcı olabilirsem buradayım.",
		LangEN: "All set! I'm here if you need anything else.",
	},
	msgStepLimit: {
		LangTR: "Biraz dolandık galiba. Hadi baştan başlayalım, ne arıyorsun?",
		LangEN: "Looks like we went in circles. Let's start fresh, what are you looking for?",
	},
	msgGreeting: {
		LangTR: "Merhaba! Ben çikolata sommelier'in. Hediye, tat önerisi ya da bütçene göre seçim için yazabilirsin.",
		LangEN: "Hello! I'm your chocolate sommelier. Ask me for a gift, a taste match or something within your budget.",
	},
	msgGiftSuggest: {
		LangTR: "Hediye için şunları öneririm:",
		LangEN: "For a gift I'd suggest:",
	},
	msgRecommendSuggest: {
		LangTR: "Sana özel önerilerim:",
		LangEN: "My picks for you:",
	},
	msgBudgetSuggest: {
		LangTR: "%s bütçene uygun seçenekler:",
		LangEN: "Options within your %s budget:",
	},
	msgBudgetAsk: {
		LangTR: "Bütçeni yazarsan daha isabetli önerebilirim. En uygun fiyatlılarımız:",
		LangEN: "Tell me your budget and I'll narrow it down. Our most affordable picks:",
	},
	msgNoProducts: {
		LangTR: "Şu an bu kriterlere uygun stokta ürünümüz yok, farklı bir şey deneyelim mi?",
		LangEN: "Nothing in stock matches that right now, shall we try something else?",
	},
	msgIngredientInfo: {
		LangTR: "Tüm ürünlerimizin içindekiler ve alerjen bilgisi ürün sayfasında yer alıyor. Ürünlerimiz fındık, süt ve gluten izi içerebilir.",
		LangEN: "Full ingredient and allergen details are on each product page. Our products may contain traces of nuts, milk and gluten.",
	},
	msgOffTopic: {
		LangTR: "Ben yalnızca çikolata, hediye ve siparişlerle ilgili yardımcı olabiliyorum. Bu konularda ne sormak istersin?",
		LangEN: "I can only help with chocolate, gifts and orders. What would you like to know about those?",
	},
	msgAnd: {
		LangTR: " ve ",
		LangEN: " and ",
	},
}

var fallbackReplies = []Text{
	{
		LangTR: "Bunu tam anlayamadım. Hediye mi arıyorsun, yoksa kendine bir tat mı?",
		LangEN: "I didn't quite catch that. Are you shopping for a gift or for yourself?",
	},
	{
		LangTR: "Biraz daha açar mısın? Örneğin \"bitter çikolata öner\" yazabilirsin.",
		LangEN: "Could you tell me a bit more? For example, \"recommend a dark chocolate\".",
	},
	{
		LangTR: "Sana yardımcı olmak isterim! Sevdiğin tatları ya da bütçeni yazar mısın?",
		LangEN: "Happy to help! Could you share the flavours you like or your budget?",
	},
	{
		LangTR: "Hmm, emin olamadım. Hediye, tat önerisi ya da kargo hakkında sorabilirsin.",
		LangEN: "Hmm, not sure about that. You can ask about gifts, taste picks or shipping.",
	},
}

var axisNames = map[Axis]Text{
	AxisIntensity:  {LangTR: "yoğunluk", LangEN: "intensity"},
	AxisSweetness:  {LangTR: "tatlılık", LangEN: "sweetness"},
	AxisCreaminess: {LangTR: "kremsilik", LangEN: "creaminess"},
	AxisFruitiness: {LangTR: "meyvemsilik", LangEN: "fruitiness"},
	AxisAcidity:    {LangTR: "asidite", LangEN: "acidity"},
	AxisCrunch:     {LangTR: "çıtırlık", LangEN: "crunch"},
}

// msg renders an engine message in lang.
func msg(key msgKey, lang Lang, args ...any) string {
	s := messages[key].Resolve(lang)
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}

// joinParagraphs joins the non-empty parts with a blank line.
func joinParagraphs(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
