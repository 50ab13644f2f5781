package rules

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

// DefaultCooldown applies to categories without a rule of their own
const DefaultCooldown = 60 * time.Second

// Rule maps trigger phrases to a category
type Rule struct {
	Category entities.Category `yaml:"category"`
	Triggers []string          `yaml:"triggers"`
	Cooldown time.Duration     `yaml:"cooldown"`
}

// Table is an ordered, read-only rule set. The first matching rule wins.
type Table struct {
	rules           []Rule
	defaultCooldown time.Duration
}

// NewTable builds a table, lowercasing triggers and rejecting unknown categories
func NewTable(rules []Rule, defaultCooldown time.Duration) (*Table, error) {
	if defaultCooldown <= 0 {
		defaultCooldown = DefaultCooldown
	}

	seen := make(map[entities.Category]bool, len(rules))
	normalized := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if !r.Category.IsValid() || r.Category == entities.CategoryOther {
			return nil, fmt.Errorf("rule %d: invalid category %q", i, r.Category)
		}
		if seen[r.Category] {
			return nil, fmt.Errorf("rule %d: duplicate category %q", i, r.Category)
		}
		seen[r.Category] = true

		triggers := make([]string, 0, len(r.Triggers))
		for _, t := range r.Triggers {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				triggers = append(triggers, t)
			}
		}
		if len(triggers) == 0 {
			return nil, fmt.Errorf("rule %d: no triggers for %s", i, r.Category)
		}
		if r.Cooldown <= 0 {
			r.Cooldown = defaultCooldown
		}
		normalized = append(normalized, Rule{Category: r.Category, Triggers: triggers, Cooldown: r.Cooldown})
	}

	return &Table{rules: normalized, defaultCooldown: defaultCooldown}, nil
}

// Detect returns the category of the first rule with a trigger contained in text
func (t *Table) Detect(text string) (entities.Category, bool) {
	lowered := strings.ToLower(text)
	for _, r := range t.rules {
		for _, trigger := range r.Triggers {
			if strings.Contains(lowered, trigger) {
				return r.Category, true
			}
		}
	}
	return "", false
}

// CooldownFor returns the category cooldown, or the default when no rule declares it
func (t *Table) CooldownFor(category entities.Category) time.Duration {
	for _, r := range t.rules {
		if r.Category == category {
			return r.Cooldown
		}
	}
	return t.defaultCooldown
}

// Rules returns a copy of the rules in evaluation order
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// DefaultTable returns the built-in PT-BR rule set
func DefaultTable() *Table {
	t, err := NewTable(defaultRules, DefaultCooldown)
	if err != nil {
		panic(err)
	}
	return t
}

var defaultRules = []Rule{
	{
		Category: entities.CategoryBuyingSignal,
		Triggers: []string{"tenho interesse", "quero avançar", "vamos fechar", "quero fazer", "gostei", "interessante", "pode ser"},
		Cooldown: 90 * time.Second,
	},
	{
		Category: entities.CategoryPrice,
		Triggers: []string{"quanto custa", "qual o valor", "preço", "investimento", "orçamento", "quanto fica", "quanto é"},
		Cooldown: 120 * time.Second,
	},
	{
		Category: entities.CategoryObjection,
		Triggers: []string{"preciso pensar", "sem tempo", "muito caro", "já uso", "não agora", "talvez depois", "vou avaliar"},
		Cooldown: 90 * time.Second,
	},
	{
		Category: entities.CategoryHowItWorks,
		Triggers: []string{"como funciona", "me explica", "qual o processo", "não entendi", "pode detalhar", "como é"},
		Cooldown: 120 * time.Second,
	},
	{
		Category: entities.CategoryNextStep,
		Triggers: []string{"próximo passo", "e agora", "o que fazer", "como seguir", "manda proposta", "me envia", "agenda"},
		Cooldown: 120 * time.Second,
	},
	{
		Category: entities.CategoryRisk,
		Triggers: []string{"não tenho certeza", "preocupado", "risco", "e se não der certo", "garantia", "seguro"},
		Cooldown: 90 * time.Second,
	},
}

type fileRule struct {
	Category string   `yaml:"category"`
	Triggers []string `yaml:"triggers"`
	Cooldown string   `yaml:"cooldown"`
}

type fileTable struct {
	DefaultCooldown string     `yaml:"default_cooldown"`
	Rules           []fileRule `yaml:"rules"`
}

// LoadFile reads a YAML rule table:
//
//	default_cooldown: 60s
//	rules:
//	  - category: PRICE
//	    cooldown: 120s
//	    triggers: ["quanto custa", "preço"]
//
// fallback applies when the file sets no default_cooldown.
func LoadFile(path string, fallback time.Duration) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(raw, fallback)
}

// Parse decodes a YAML rule table. fallback is the default cooldown when the
// document sets none.
func Parse(raw []byte, fallback time.Duration) (*Table, error) {
	var ft fileTable
	if err := yaml.Unmarshal(raw, &ft); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	defaultCooldown := fallback
	if ft.DefaultCooldown != "" {
		d, err := time.ParseDuration(ft.DefaultCooldown)
		if err != nil {
			return nil, fmt.Errorf("invalid default_cooldown: %w", err)
		}
		defaultCooldown = d
	}

	rules := make([]Rule, 0, len(ft.Rules))
	for _, fr := range ft.Rules {
		r := Rule{
			Category: entities.Category(strings.ToUpper(strings.TrimSpace(fr.Category))),
			Triggers: fr.Triggers,
		}
		if fr.Cooldown != "" {
			d, err := time.ParseDuration(fr.Cooldown)
			if err != nil {
				return nil, fmt.Errorf("invalid cooldown for %s: %w", fr.Category, err)
			}
			r.Cooldown = d
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rules file defines no rules")
	}

	return NewTable(rules, defaultCooldown)
}
