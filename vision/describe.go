// Package vision obtains a structured textual description of the care
// pathway diagram embedded in the reference document, via a
// vision-capable LLM. The extracted image is cached on disk so the
// document is only unpacked once.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KilianLavenan/medical-rag-chat/document"
	"github.com/KilianLavenan/medical-rag-chat/llm"
)

// ErrUnavailable is returned when the vision model is unreachable or
// returns an empty result. Ingestion is a one-time offline step, so this
// is surfaced rather than retried.
var ErrUnavailable = errors.New("vision: summarization unavailable")

const systemPrompt = "Tu es un assistant médical qui décrit des schémas."

// describePrompt pins the response to a three-part format: one-sentence
// description, title, then the pathway structure using the exact text of
// each depicted block.
const describePrompt = "Analyse attentivement cette image. " +
	"C'est un organigramme de prise en charge en ambulatoire ou à l'hôpital des pneumonies communautaires.\n\n" +
	"Ta réponse doit suivre EXACTEMENT ce format :\n" +
	"- Description : une phrase\n" +
	"- Titre : le titre principal du schéma\n" +
	"- Structure du schéma : décris en utilisant le texte exact dans chaque bloc du schéma, " +
	"le processus de prise en charge d'un patient atteint d'une pneumonie communautaire.\n"

// Describer produces the diagram description for ingestion.
type Describer struct {
	provider llm.VisionProvider
	model    string
}

func NewDescriber(provider llm.VisionProvider, model string) *Describer {
	return &Describer{provider: provider, model: model}
}

// DescribeOnce extracts the document's embedded image to cachePath (skipped
// when the cache file already exists) and returns the model's description
// of it. The source's image is only read on a cache miss, so repeated calls
// against the same cache path never unpack the document twice.
func (d *Describer) DescribeOnce(ctx context.Context, src document.Source, cachePath string) (string, error) {
	if _, err := os.Stat(cachePath); err != nil {
		data, err := src.Image()
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			return "", fmt.Errorf("caching extracted image: %w", err)
		}
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return "", fmt.Errorf("reading cached image: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(data)

	resp, err := d.provider.ChatWithImages(ctx, llm.VisionChatRequest{
		Model: d.model,
		Messages: []llm.VisionMessage{
			{
				Role:    "system",
				Content: []llm.ContentPart{{Type: "text", Text: systemPrompt}},
			},
			{
				Role: "user",
				Content: []llm.ContentPart{
					{Type: "text", Text: describePrompt},
					{Type: "image_url", ImageURL: &llm.ImageURL{URL: "data:image/png;base64," + b64}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return resp.Content, nil
}
