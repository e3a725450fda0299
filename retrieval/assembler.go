// Package retrieval assembles grounding prompts: it embeds a user query,
// pulls the nearest chunks from the vector store, and renders them with
// the question under a fixed answer/source contract.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KilianLavenan/medical-rag-chat/llm"
	"github.com/KilianLavenan/medical-rag-chat/store"
)

// ErrUnavailable is returned when the embedding capability or the vector
// store cannot be reached. An empty result set is not an error; it
// degrades to an evidence-free prompt.
var ErrUnavailable = errors.New("retrieval: embedding or store unavailable")

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 3

const promptIntro = "Voici quelques informations du document de prise en charge " +
	"des pneumopathies aigues communautaires qui pourraient être utiles " +
	"pour répondre aux questions de l'utilisateur:\n---\n"

// promptInstructions mandates the two labelled sections and tells the
// model to decline rather than fabricate when the evidence is thin.
const promptInstructions = "Ta réponse doit OBLIGATOIREMENT suivre ce format :\n\n" +
	"Réponse : (fournis une réponse complète et synthétisée basée UNIQUEMENT sur les informations ci-dessus)\n\n" +
	"Source : (liste les passages exacts et leurs parties dans le texte utilisés pour répondre. " +
	"Si le passage provient d'un tableau ou d'une annexe, inclus également son titre.)\n\n" +
	"Si tu ne trouves pas la réponse dans les informations fournies, ne réponds pas à la question, " +
	"tu peux dire que tu n'as pas la réponse."

// Assembler builds grounding prompts against a populated store.
type Assembler struct {
	embedder llm.Provider
	store    store.VectorStore
}

// New creates an assembler. The store must have been populated by a prior
// ingestion run.
func New(embedder llm.Provider, s store.VectorStore) *Assembler {
	return &Assembler{embedder: embedder, store: s}
}

// BuildPrompt embeds the query, retrieves the top-k nearest chunks and
// renders the grounding prompt. k <= 0 selects DefaultTopK. The assembler
// performs no generation itself.
func (a *Assembler) BuildPrompt(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	embeddings, err := a.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("%w: embedding query: %v", ErrUnavailable, err)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return "", fmt.Errorf("%w: empty query embedding", ErrUnavailable)
	}

	results, err := a.store.Query(ctx, embeddings[0], k)
	if err != nil {
		return "", fmt.Errorf("%w: querying store: %v", ErrUnavailable, err)
	}

	return Render(query, results), nil
}

// Render produces the grounding prompt from already-retrieved chunks.
func Render(query string, results []store.Result) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	for _, r := range results {
		b.WriteString(r.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("\nUser Question: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(promptInstructions)
	return b.String()
}
