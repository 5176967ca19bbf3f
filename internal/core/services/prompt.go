package services

import "strings"

// promptPreamble is the fixed instruction block prepended to every
// generation request. The refusal sentence is part of the contract with the
// model: it is what users see when the document has no answer.
const promptPreamble = `You are Sahay AI, a helpful assistant specialized in answering questions about the Pradhan Mantri Kisan Samman Nidhi (PM-KISAN) scheme.

INSTRUCTIONS:
- Answer the user's question based ONLY on the provided context from the official PM-KISAN rules document.
- If the information is not available in the context, respond with: "I'm sorry, the official rules document does not provide information on that topic."
- Keep your answers simple, clear, and in plain language that farmers can easily understand.
- Be accurate and cite specific details from the document when available.
- Be helpful and empathetic in your tone.`

// buildPrompt assembles the full generation prompt: preamble, the retrieved
// chunks joined with blank lines in retrieval order, then the verbatim
// user question.
func buildPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nCONTEXT FROM PM-KISAN OFFICIAL DOCUMENT:\n")
	b.WriteString(strings.Join(contexts, "\n\n"))
	b.WriteString("\n\nUSER QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nSAHAY AI RESPONSE:")
	return b.String()
}
