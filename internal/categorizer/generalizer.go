package categorizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"google.golang.org/genai"
)

// DefaultGeneralizerModel is the Gemini model used for text generalization.
const DefaultGeneralizerModel = "gemini-2.5-flash"

// Generalizer strips volatile tokens from a description so it can serve as a
// stable rule key.
type Generalizer interface {
	Generalize(ctx context.Context, description string) (string, error)
}

var (
	domainPattern = regexp.MustCompile(`\b(?:WWW\.)?[A-Z0-9-]+(?:\.[A-Z0-9-]+)*\.(?:COM|NET|ORG|IO|CO|US|APP)\b(?:/\S*)?`)
	refPattern    = regexp.MustCompile(`\b(?:CONF(?:IRMATION)?|REF(?:ERENCE)?|INV(?:OICE)?|TXN|TRANS(?:ACTION)?|ORDER|AUTH|ID)\b\s*(?:#|NO\.?|NUMBER|:)?\s*[A-Z-]*\d[A-Z0-9-]*`)
	hashPattern   = regexp.MustCompile(`#\s*[A-Z0-9-]+`)
	isoDate       = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	slashDate     = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`)
	amountPattern = regexp.MustCompile(`\$?\b\d{1,3}(?:,\d{3})+(?:\.\d{2})?\b|\$?\b\d+\.\d{2}\b|\$\d+\b`)
	digitRun      = regexp.MustCompile(`\b\d{3,}\b`)
	separators    = regexp.MustCompile(`[^A-Z0-9&' ]+`)
)

// PatternGeneralizer is the built-in heuristic generalizer.
type PatternGeneralizer struct{}

// Generalize removes confirmation and reference codes, invoice numbers,
// dates, amounts, long digit runs, mixed alphanumeric ids and web domains.
// A description that would become empty is returned upper-cased instead.
func (PatternGeneralizer) Generalize(_ context.Context, description string) (string, error) {
	raw := strings.Join(strings.Fields(strings.ToUpper(description)), " ")
	if raw == "" {
		return "", nil
	}

	s := raw
	for _, re := range []*regexp.Regexp{domainPattern, refPattern, hashPattern, isoDate, slashDate, amountPattern, digitRun} {
		s = re.ReplaceAllString(s, " ")
	}
	s = separators.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	kept := tokens[:0]
	for _, tok := range tokens {
		if isTransientToken(tok) {
			continue
		}
		kept = append(kept, tok)
	}

	out := strings.Join(kept, " ")
	if out == "" {
		return raw, nil
	}
	return out, nil
}

// isTransientToken reports tokens that look like generated identifiers:
// six or more characters mixing letters and digits.
func isTransientToken(tok string) bool {
	if len(tok) < 6 {
		return false
	}
	var letters, digits bool
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letters = true
		case unicode.IsDigit(r):
			digits = true
		}
	}
	return letters && digits
}

// GenAIGeneralizer delegates generalization to a Gemini model.
type GenAIGeneralizer struct {
	client *genai.Client
	model  string
}

// NewGenAIGeneralizer creates a Gemini-backed generalizer using application
// default credentials.
func NewGenAIGeneralizer(ctx context.Context, model string) (*GenAIGeneralizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIGeneralizer: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultGeneralizerModel
	}
	return &GenAIGeneralizer{client: client, model: model}, nil
}

const generalizePrompt = "You normalize bank transaction descriptions into stable rule keys.\n\n" +
	"Rules:\n" +
	"- Remove confirmation numbers, reference numbers, invoice numbers, transaction ids, dates and amounts.\n" +
	"- Keep the vendor or payer name and the purpose words.\n" +
	"- Output UPPERCASE plain text on one line. No quotes, no explanation.\n\n" +
	"Description: "

// Generalize implements Generalizer.
func (g *GenAIGeneralizer) Generalize(ctx context.Context, description string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: generalizePrompt + description}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAIGeneralizer: generate content: %w", err)
	}

	out := strings.Join(strings.Fields(strings.ToUpper(resp.Text())), " ")
	out = strings.Trim(out, "\"'`")
	if out == "" {
		return "", fmt.Errorf("GenAIGeneralizer: empty response for %q", description)
	}
	return out, nil
}
