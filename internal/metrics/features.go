package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/review-agent/internal/gitdiff"
)

// Features holds size counts of a piece of text.
type Features struct {
	Bytes int `json:"bytes"`
	Runes int `json:"runes"`
	Words int `json:"words"`
	Lines int `json:"lines"`
}

// CountFeatures computes byte, rune, word and line counts. Lines is 0 for the empty
// string and otherwise one more than the number of newlines.
func CountFeatures(s string) Features {
	f := Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		f.Lines = 1 + strings.Count(s, "\n")
	}
	return f
}

func (f Features) Add(o Features) Features {
	return Features{
		Bytes: f.Bytes + o.Bytes,
		Runes: f.Runes + o.Runes,
		Words: f.Words + o.Words,
		Lines: f.Lines + o.Lines,
	}
}

// ChangeSetFeatures sums the features of every diff in a change-set.
func ChangeSetFeatures(records []gitdiff.Record) Features {
	var total Features
	for _, r := range records {
		total = total.Add(CountFeatures(r.Diff))
	}
	return total
}
