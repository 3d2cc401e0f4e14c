package sommelier

import "math/rand/v2"

// Rand picks the fallback reply. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// fallbackReply returns one of the clarifying prompts.
func fallbackReply(r Rand, lang Lang) string {
	i := r.IntN(len(fallbackReplies))
	if i < 0 || i >= len(fallbackReplies) {
		i = 0
	}
	return fallbackReplies[i].Resolve(lang)
}
