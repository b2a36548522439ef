// Package statinfer guesses which attribute a free-form player action
// should test. It is the safety net for narrator choices that arrive
// without an explicit stat attached.
package statinfer

import (
	"regexp"
	"strings"

	"github.com/louisbranch/fabled/internal/game/domain"
)

type mapping struct {
	stat     domain.StatType
	keywords []string
}

// keywordMap is scanned in order, so earlier stats win when an action
// mentions verbs from several lists.
var keywordMap = []mapping{
	{stat: domain.StatSTR, keywords: []string{
		"smash", "break", "lift", "push", "pull", "force", "crush", "shove",
		"throw", "carry", "drag", "hold", "grapple", "punch", "kick",
		"strike", "attack", "fight", "brawl", "overpower", "intimidate",
		"climb", "jump", "leap", "swim", "run", "sprint", "dash", "charge",
		"brace", "resist", "endure",
	}},
	{stat: domain.StatDEX, keywords: []string{
		"dodge", "evade", "sneak", "hide", "creep", "crawl", "balance",
		"tumble", "roll", "pick", "unlock", "disarm", "steal", "swipe",
		"snatch", "catch", "aim", "shoot", "fire", "throw", "parry",
		"deflect", "maneuver", "pilot", "drive", "ride", "stealth",
		"quiet", "silent", "fast", "quick", "agile", "nimble",
	}},
	{stat: domain.StatCON, keywords: []string{
		"resist", "endure", "survive", "withstand", "hold breath", "drink",
		"eat", "consume", "rest", "recover", "heal", "stabilize", "tough",
		"hardy", "resilient", "stamina", "vitality", "health", "poison",
		"disease", "cold", "heat", "pain",
	}},
	{stat: domain.StatINT, keywords: []string{
		"analyze", "investigate", "examine", "study", "research", "read",
		"decipher", "translate", "recall", "remember", "know", "understand",
		"comprehend", "calculate", "solve", "plan", "strategize", "craft",
		"repair", "build", "hack", "program", "cast", "spell", "magic",
		"arcane", "history", "nature", "religion", "science",
	}},
	{stat: domain.StatCHA, keywords: []string{
		"persuade", "deceive", "lie", "bluff", "intimidate", "charm",
		"seduce", "perform", "entertain", "inspire", "lead", "command",
		"negotiate", "bargain", "haggle", "taunt", "mock", "distract",
		"convince", "talk", "speak", "shout", "yell", "roar",
	}},
	{stat: domain.StatPER, keywords: []string{
		"spot", "search", "find", "locate", "detect", "notice", "observe",
		"watch", "listen", "hear", "smell", "taste", "track", "hunt",
		"scout", "scan", "identify", "discern", "perceive", "sense",
		"insight", "intuition", "awareness", "alert",
	}},
	{stat: domain.StatLUK, keywords: []string{
		"guess", "gamble", "bet", "chance", "risk", "hope", "pray", "wish",
		"luck", "fortune", "fate", "destiny", "random", "wild", "chaos",
	}},
}

var asteriskPattern = regexp.MustCompile(`\*([a-z]+)\*`)

var wordPatterns = buildWordPatterns()

func buildWordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, m := range keywordMap {
		for _, kw := range m.keywords {
			if _, ok := patterns[kw]; !ok {
				patterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
	return patterns
}

// Infer returns the attribute an action text most likely tests. A
// keyword wrapped in asterisks ("*sneak* past the guard") is trusted
// first; otherwise the text is scanned for whole-word keyword matches.
// The second return value is false when nothing matched.
func Infer(text string) (domain.StatType, bool) {
	lower := strings.ToLower(text)

	if match := asteriskPattern.FindStringSubmatch(lower); match != nil {
		keyword := match[1]
		for _, m := range keywordMap {
			for _, kw := range m.keywords {
				if kw == keyword {
					return m.stat, true
				}
			}
		}
	}

	for _, m := range keywordMap {
		for _, kw := range m.keywords {
			if wordPatterns[kw].MatchString(lower) {
				return m.stat, true
			}
		}
	}

	return "", false
}
