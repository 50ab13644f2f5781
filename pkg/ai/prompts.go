package ai

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
)

const systemPrompt = `Você é um coach de vendas experiente acompanhando uma call ao vivo.
Gere respostas em JSON puro, sem markdown.
Seja objetivo, acionável e empático.`

var categoryPrompts = map[entities.Category]string{
	entities.CategoryBuyingSignal: `O cliente demonstrou interesse. Gere um card de coaching para o vendedor:
- Título: curto e motivador
- Sugestões: 2-3 ações para avançar na venda
- Pergunta: uma pergunta de fechamento`,

	entities.CategoryPrice: `O cliente perguntou sobre preço. Gere um card de coaching:
- Título: curto e objetivo
- Sugestões: 2-3 táticas para justificar valor (não falar número antes de mostrar benefícios)
- Pergunta: uma pergunta para entender orçamento/expectativa`,

	entities.CategoryObjection: `O cliente levantou uma objeção. Gere um card de coaching:
- Título: curto e empático
- Sugestões: 2-3 formas de contornar a objeção sem ser agressivo
- Pergunta: uma pergunta para entender a real preocupação`,

	entities.CategoryHowItWorks: `O cliente pediu explicações. Gere um card de coaching:
- Título: curto e claro
- Sugestões: 2-3 dicas para explicar de forma simples
- Pergunta: uma pergunta para confirmar entendimento`,

	entities.CategoryNextStep: `O cliente perguntou sobre próximos passos. Gere um card de coaching:
- Título: curto e acionável
- Sugestões: 2-3 ações concretas (proposta, demo, reunião)
- Pergunta: uma pergunta para agendar compromisso`,

	entities.CategoryRisk: `O cliente demonstrou preocupação/risco. Gere um card de coaching:
- Título: curto e tranquilizador
- Sugestões: 2-3 formas de gerar segurança
- Pergunta: uma pergunta para mapear a preocupação real`,
}

const cardFormat = `Responda APENAS com JSON neste formato:
{
  "title": "título curto",
  "urgency": "low | medium | high",
  "context": "por que isso importa agora, em uma frase",
  "suggestions": ["ação 1", "ação 2", "ação 3"],
  "question": "pergunta sugerida?",
  "pitfalls": ["o que evitar"],
  "script": "frase pronta opcional"
}`

func cardPrompt(category entities.Category, quote string, recent []string) string {
	var b strings.Builder
	instruction, ok := categoryPrompts[category]
	if !ok {
		instruction = "Gere um card de coaching útil para o vendedor neste momento da call."
	}
	b.WriteString(instruction)
	fmt.Fprintf(&b, "\n\nFala do cliente: %q\n", quote)
	if len(recent) > 0 {
		b.WriteString("\nContexto recente:\n")
		b.WriteString(strings.Join(recent, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(cardFormat)
	return b.String()
}

func contextualPrompt(segments []string) string {
	var b strings.Builder
	b.WriteString("Estas são as falas mais recentes do cliente, da mais antiga para a mais nova:\n")
	for i, s := range segments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString(`
Decida se o vendedor precisa de uma orientação agora.
Se não precisar, responda apenas {"intervene": false}.
Se precisar, responda com "intervene": true e os campos do card abaixo.

`)
	b.WriteString(cardFormat)
	return b.String()
}

const reportSystemPrompt = `Você é um especialista em análise de vendas.
Gere um relatório executivo completo baseado na transcrição da call e nos insights gerados.

O relatório deve ter:
1. Resumo Executivo (2-3 parágrafos)
2. Necessidades e Dores do Cliente (bullet points)
3. Objeções Levantadas (bullet points com contexto)
4. Sinais de Compra (bullet points)
5. Próximos Passos (ações concretas com responsável e prazo sugerido)
6. Checklist do Vendedor nas Próximas 24h

Use markdown para formatação. Seja objetivo e acionável.`

func reportPrompt(segments []*entities.Segment, insights []*entities.Insight) string {
	var b strings.Builder
	b.WriteString("# Transcrição da Call\n\n")
	for _, s := range segments {
		fmt.Fprintf(&b, "[%s]: %s\n", s.Speaker, s.Text)
	}
	b.WriteString("\n# Insights Gerados Durante a Call\n\n")
	for _, in := range insights {
		fmt.Fprintf(&b, "- %s: %q\n", in.Type, in.Quote)
	}
	b.WriteString("\nGere o relatório executivo completo seguindo a estrutura solicitada.")
	return b.String()
}
