package classify

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const General = "general"

type Rule struct {
	Category string `yaml:"category" json:"category"`
	Pattern  string `yaml:"pattern" json:"pattern"`
}

// DefaultRules lists the bilingual keyword rules in evaluation order.
var DefaultRules = []Rule{
	{"sports", `sport|match|league|cup|fifa|uefa|nba|premier|رياضي|رياضة|مباراة|بطولة|دوري`},
	{"technology", `tech|تكنولوجيا|تقنية|gadgets|هواتف|ذكاء اصطناعي|ai|chip|semiconductor|apps|software`},
	{"health", `health|صحة|دواء|طب|wellness|fitness`},
	{"lifestyle", `travel|سفر|سياحة|مطاعم|مطعم|وصفات|طبخ|lifestyle|منوعات|varieties`},
	{"markets", `gold|ذهب|bullion|سعر الذهب|أسعار الذهب|currency|exchange|سعر الصرف|أسعار الصرف|oil|نفط|بورصة`},
	{"weather", `طقس|weather|forecast|أرصاد|أحوال جوية`},
	{"science", `science|علوم|space|فضاء|research|بحث|علمي`},
	{"entertainment", `entertainment|فن|نجوم|سينما|مسلسلات|موسيقى`},
}

type compiledRule struct {
	category string
	re       *regexp.Regexp
}

// Classifier maps free text to a category. Rules are evaluated in slice
// order and the first match wins.
type Classifier struct {
	rules []compiledRule
}

func New(rules []Rule) (*Classifier, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if rule.Category == "" {
			return nil, fmt.Errorf("rule at index %d has no category", i)
		}
		if rule.Pattern == "" {
			return nil, fmt.Errorf("rule %q has no pattern", rule.Category)
		}

		re, err := regexp.Compile("(?i)(?:" + rule.Pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %q: %w", rule.Category, err)
		}
		compiled = append(compiled, compiledRule{category: rule.Category, re: re})
	}

	return &Classifier{rules: compiled}, nil
}

func Default() *Classifier {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the first matching rule's category, else the first
// fallback category, else General.
func (c *Classifier) Classify(text string, fallback []string) string {
	lowered := cases.Lower(language.Und).String(text)

	for _, rule := range c.rules {
		if rule.re.MatchString(lowered) {
			return rule.category
		}
	}

	if len(fallback) > 0 && strings.TrimSpace(fallback[0]) != "" {
		return fallback[0]
	}
	return General
}

// Categories lists the distinct rule categories in rule order.
func (c *Classifier) Categories() []string {
	seen := make(map[string]bool, len(c.rules))
	categories := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		if !seen[rule.category] {
			seen[rule.category] = true
			categories = append(categories, rule.category)
		}
	}
	return categories
}
