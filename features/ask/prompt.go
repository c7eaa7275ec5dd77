package ask

import (
	"fmt"
	"strings"

	"newsrag/internal/retrieval"
)

// NoAnswerMessage is what the model is instructed to say when the
// retrieved context does not cover the question.
const NoAnswerMessage = "I could not find enough information in the current data to answer."

// BuildPrompt assembles the grounding context and the question into a
// single prompt. Each passage is prefixed with its scores so the model
// can weigh conflicting passages.
func BuildPrompt(question string, contexts []retrieval.Candidate) string {
	var contextText string
	if len(contexts) == 0 {
		contextText = "No relevant context found in the database."
	} else {
		chunks := make([]string, 0, len(contexts))
		for i, ctx := range contexts {
			lang := ctx.Language
			if lang == "" {
				lang = "?"
			}

			var prefix string
			if ctx.RerankScore != nil {
				prefix = fmt.Sprintf("[doc %d | rerank_score=%.4f | vector_score=%.4f | lang=%s]", i+1, *ctx.RerankScore, ctx.VectorScore, lang)
			} else {
				prefix = fmt.Sprintf("[doc %d | vector_score=%.4f | lang=%s]", i+1, ctx.VectorScore, lang)
			}

			chunks = append(chunks, prefix+"\n"+ctx.Text)
		}
		contextText = strings.Join(chunks, "\n\n---\n\n")
	}

	return fmt.Sprintf(`You are an assistant that summarizes and answers questions based on news articles.

Context (relevant news passages):

%s

---

Rules:
- Answer clearly and concisely.
- Answer in the same language as the question.
- Only use information from the context above.
- If the context does not contain the needed information, say: "%s"
- Where possible, mention the title or a short description of the related article.

User question:
%s

Answer:
`, contextText, NoAnswerMessage, question)
}
