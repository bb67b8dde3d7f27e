package narrate

// Language is the coarse language class used to decide on translation.
type Language string

const (
	English Language = "ENGLISH"
	Tamil   Language = "TAMIL"
	Telugu  Language = "TELUGU"
)

type scriptRange struct {
	lang   Language
	lo, hi rune
}

// Checked in order, so text mixing both scripts is classed as Tamil.
var scripts = []scriptRange{
	{lang: Tamil, lo: 0x0B80, hi: 0x0BFF},
	{lang: Telugu, lo: 0x0C00, hi: 0x0C7F},
}

// DetectLanguage is a best-effort heuristic, not language identification: a
// single rune from the Tamil or Telugu block is enough to pick that language,
// everything else is English.
func DetectLanguage(text string) Language {
	for _, s := range scripts {
		for _, r := range text {
			if r >= s.lo && r <= s.hi {
				return s.lang
			}
		}
	}
	return English
}
