package blacklist

import (
	"regexp"
	"strings"
)

// Terms holds banned words grouped by bucket.
type Terms struct {
	AR       []string `yaml:"ar" json:"ar"`
	EN       []string `yaml:"en" json:"en"`
	Adult    []string `yaml:"adult" json:"adult"`
	Violence []string `yaml:"violence" json:"violence"`
}

func (t Terms) All() []string {
	all := make([]string, 0, len(t.AR)+len(t.EN)+len(t.Adult)+len(t.Violence))
	for _, bucket := range [][]string{t.AR, t.EN, t.Adult, t.Violence} {
		for _, term := range bucket {
			if term = strings.TrimSpace(term); term != "" {
				all = append(all, term)
			}
		}
	}
	return all
}

// Filter matches any banned term as a whole word. Word characters are
// letters, digits and underscore of any script.
type Filter struct {
	re *regexp.Regexp
}

func Compile(terms Terms) *Filter {
	all := terms.All()
	if len(all) == 0 {
		return &Filter{}
	}

	quoted := make([]string, len(all))
	for i, term := range all {
		quoted[i] = regexp.QuoteMeta(term)
	}

	pattern := `(?i)(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(quoted, "|") + `)(?:[^\p{L}\p{N}_]|$)`
	return &Filter{re: regexp.MustCompile(pattern)}
}

func (f *Filter) IsBlocked(text string) bool {
	if f == nil || f.re == nil {
		return false
	}
	return f.re.MatchString(text)
}
