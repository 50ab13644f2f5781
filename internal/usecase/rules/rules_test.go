package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

func TestDetect_DefaultTable(t *testing.T) {
	table := DefaultTable()

	cases := []struct {
		text string
		want entities.Category
	}{
		{"Quanto custa o plano anual?", entities.CategoryPrice},
		{"Gostei bastante da proposta", entities.CategoryBuyingSignal},
		{"acho muito caro pra gente", entities.CategoryObjection},
		{"Como funciona a integração?", entities.CategoryHowItWorks},
		{"qual o próximo passo?", entities.CategoryNextStep},
		{"tenho medo do risco", entities.CategoryRisk},
	}
	for _, tc := range cases {
		got, ok := table.Detect(tc.text)
		require.True(t, ok, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestDetect_FirstRuleWins(t *testing.T) {
	// "interessante" (BUYING_SIGNAL) is declared before "preço" (PRICE)
	got, ok := DefaultTable().Detect("interessante, mas e o preço?")
	require.True(t, ok)
	assert.Equal(t, entities.CategoryBuyingSignal, got)
}

func TestDetect_NoMatch(t *testing.T) {
	_, ok := DefaultTable().Detect("bom dia, tudo bem com vocês?")
	assert.False(t, ok)

	_, ok = DefaultTable().Detect("")
	assert.False(t, ok)
}

func TestCooldownFor(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, 120*time.Second, table.CooldownFor(entities.CategoryPrice))
	assert.Equal(t, 90*time.Second, table.CooldownFor(entities.CategoryRisk))
	assert.Equal(t, DefaultCooldown, table.CooldownFor(entities.CategoryOther))
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable([]Rule{{Category: "NOPE", Triggers: []string{"x"}}}, 0)
	assert.Error(t, err)

	_, err = NewTable([]Rule{{Category: entities.CategoryPrice}}, 0)
	assert.Error(t, err)

	_, err = NewTable([]Rule{
		{Category: entities.CategoryPrice, Triggers: []string{"a"}},
		{Category: entities.CategoryPrice, Triggers: []string{"b"}},
	}, 0)
	assert.Error(t, err)

	_, err = NewTable([]Rule{{Category: entities.CategoryOther, Triggers: []string{"x"}}}, 0)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	table, err := Parse([]byte(`
default_cooldown: 45s
rules:
  - category: price
    cooldown: 10s
    triggers: ["  Valor ", "custo"]
  - category: RISK
    triggers: ["garantia"]
`), 0)
	require.NoError(t, err)

	got, ok := table.Detect("qual o VALOR?")
	require.True(t, ok)
	assert.Equal(t, entities.CategoryPrice, got)
	assert.Equal(t, 10*time.Second, table.CooldownFor(entities.CategoryPrice))
	assert.Equal(t, 45*time.Second, table.CooldownFor(entities.CategoryRisk))
	assert.Len(t, table.Rules(), 2)
}

func TestParse_FallbackCooldown(t *testing.T) {
	raw := []byte("rules:\n  - category: RISK\n    triggers: [garantia]\n")

	table, err := Parse(raw, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, table.CooldownFor(entities.CategoryRisk))

	table, err = Parse(raw, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCooldown, table.CooldownFor(entities.CategoryRisk))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("rules: ["), 0)
	assert.Error(t, err)

	_, err = Parse([]byte("rules: []"), 0)
	assert.Error(t, err)

	_, err = Parse([]byte("rules:\n  - category: PRICE\n    cooldown: soon\n    triggers: [x]\n"), 0)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: NEXT_STEP\n    triggers: [contrato]\n"), 0o600))

	table, err := LoadFile(path, 75*time.Second)
	require.NoError(t, err)

	got, ok := table.Detect("manda o contrato")
	require.True(t, ok)
	assert.Equal(t, entities.CategoryNextStep, got)
	assert.Equal(t, 75*time.Second, table.CooldownFor(entities.CategoryNextStep), "fallback fills rules without a cooldown")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), 0)
	assert.Error(t, err)
}
