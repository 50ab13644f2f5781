package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

var fallbackTitles = map[entities.Category]string{
	entities.CategoryBuyingSignal: "Sinal de compra: avance",
	entities.CategoryPrice:        "Preço: ancore no valor",
	entities.CategoryObjection:    "Objeção: investigue a raiz",
	entities.CategoryHowItWorks:   "Explique de forma simples",
	entities.CategoryNextStep:     "Feche o próximo passo",
	entities.CategoryRisk:         "Gere segurança",
	entities.CategoryOther:        "Mantenha o ritmo",
}

var fallbackSuggestions = map[entities.Category][]string{
	entities.CategoryBuyingSignal: {
		"Confirme o interesse e recapitule o problema que vamos resolver.",
		"Pergunte sobre timeline e próximo passo formal.",
		"Combine quem mais precisa aprovar antes de avançar.",
	},
	entities.CategoryHowItWorks: {
		"Explique o fluxo em 3 passos simples, sem jargão.",
		"Mostre um exemplo real do começo ao fim.",
		"Cheque se ficou claro e peça feedback imediato.",
	},
	entities.CategoryPrice: {
		"Pergunte sobre orçamento/faixa de investimento antes de falar preço.",
		"Contextualize valor com ROI ou casos similares.",
		"Ofereça 2 opções (starter vs completo) para ancorar.",
	},
	entities.CategoryObjection: {
		"Agradeça a honestidade e investigue a objeção raiz com 1 pergunta.",
		"Traga prova social curta alinhada ao caso do cliente.",
		"Confirme se a objeção foi endereçada e proponha micro-próximo passo.",
	},
	entities.CategoryNextStep: {
		"Defina responsável e data para o próximo passo.",
		"Confirme qual formato de material/proposta é melhor.",
		"Agende já na call um follow-up no calendário.",
	},
	entities.CategoryRisk: {
		"Resuma em 1 frase o que foi dito e peça confirmação.",
		"Pergunte o que ainda está confuso ou faltando.",
		"Reforce o objetivo da call e proponha um caminho claro.",
	},
	entities.CategoryOther: {
		"Faça uma pergunta aberta para entender melhor a necessidade.",
		"Reforce a dor principal que estamos resolvendo.",
		"Valide próximo passo para manter o ritmo da call.",
	},
}

// Fallback renders static cards when no model is configured. It never
// intervenes on the contextual channel.
type Fallback struct{}

// NewFallback creates a static card generator
func NewFallback() *Fallback {
	return &Fallback{}
}

// Describe returns the provider and model recorded with each insight
func (f *Fallback) Describe() (string, string) {
	return "fallback", "static"
}

// GenerateInsightCard returns the canned card for category
func (f *Fallback) GenerateInsightCard(ctx context.Context, category entities.Category, quote string, recent []string) (*entities.InsightCard, error) {
	suggestions, ok := fallbackSuggestions[category]
	if !ok {
		category = entities.CategoryOther
		suggestions = fallbackSuggestions[category]
	}
	return &entities.InsightCard{
		Title:       fallbackTitles[category],
		Urgency:     entities.UrgencyMedium,
		Context:     quote,
		Suggestions: append([]string(nil), suggestions...),
		Question:    "Pode me contar um pouco mais sobre isso?",
		Pitfalls:    []string{},
	}, nil
}

// GenerateContextualInsight always reports no intervention
func (f *Fallback) GenerateContextualInsight(ctx context.Context, segments []string) (*entities.InsightCard, error) {
	return nil, nil
}

const emptyReport = "# Relatório não disponível"

// GenerateReport summarizes the call from its insights without a model
func (f *Fallback) GenerateReport(ctx context.Context, segments []*entities.Segment, insights []*entities.Insight) (string, error) {
	clientLines := 0
	for _, s := range segments {
		if s.Speaker == entities.SpeakerClient {
			clientLines++
		}
	}

	byCategory := make(map[entities.Category][]*entities.Insight)
	for _, in := range insights {
		byCategory[in.Type] = append(byCategory[in.Type], in)
	}

	var b strings.Builder
	b.WriteString("# Relatório da Call\n\n## Resumo\n\n")
	fmt.Fprintf(&b, "%d falas registradas, %d do cliente. %d insights gerados.\n", len(segments), clientLines, len(insights))

	if len(insights) == 0 {
		b.WriteString("\nNenhum momento-chave foi detectado durante a call.\n")
		return b.String(), nil
	}

	b.WriteString("\n## Momentos-chave\n\n")
	for _, category := range entities.Categories {
		for _, in := range byCategory[category] {
			fmt.Fprintf(&b, "- **%s**: %q\n", category, in.Quote)
		}
	}

	b.WriteString("\n## Próximos Passos\n\n")
	for _, category := range entities.Categories {
		if len(byCategory[category]) == 0 {
			continue
		}
		if suggestions := fallbackSuggestions[category]; len(suggestions) > 0 {
			fmt.Fprintf(&b, "- %s\n", suggestions[0])
		}
	}
	return b.String(), nil
}
