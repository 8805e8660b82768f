// Package curriculum provides the catalog of topics, core subjects and default
// daily tasks used to seed a fresh tracker state.
package curriculum

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/pai-tracker/internal/model"
)

// File is the YAML layout of a catalog file. Every section is optional.
type File struct {
	Topics     []model.Topic       `yaml:"topics"`
	Subjects   []model.CoreSubject `yaml:"subjects"`
	DailyTasks []model.Task        `yaml:"daily_tasks"`
}

// Slugify lowercases name, folds accents and joins words with dashes.
func Slugify(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	out := make([]rune, 0, len(folded))
	dash := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			out = append(out, unicode.ToLower(r))
			dash = false
		case len(out) > 0 && !dash:
			out = append(out, '-')
			dash = true
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	return string(out)
}
