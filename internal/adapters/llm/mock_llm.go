package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

// MockLLM answers deterministically without calling a model. JSON prompts get
// a complete mentorship response; plain prompts get the leading sentences of
// the user text.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Generate(_ context.Context, p domain.Prompt) (string, error) {
	if !p.JSON {
		return leadSentences(p.User, 2), nil
	}

	topic := queryLine(p.User)
	resp := domain.MentorResponse{
		Response: fmt.Sprintf("Let us treat %q as a scholarly problem rather than a homework question. "+
			"Start by locating it inside the debates that shaped your field, then ask which assumptions "+
			"each position takes for granted. Read one seminal paper and one recent review, and write a "+
			"one page synthesis comparing how each defines the core concepts. Then design a small study "+
			"or argument of your own that tests the weakest assumption you found. Present it to a faculty "+
			"member and ask for critique. This moves you from understanding the material to contributing "+
			"to it, which is exactly what distinction committees look for.", topic),
		Frameworks:    []string{"Constructivist Learning Theory", "Bloom's Taxonomy", "Critical Realism"},
		Methodologies: []string{"Systematic Literature Review", "Comparative Case Analysis"},
		ExcellenceImpact: "Mastering this topic at a research level strengthens your critical thinking " +
			"and research engagement factors.",
		Actions: []string{
			"Read one seminal and one recent review article on the topic",
			"Write a one page comparative synthesis",
			"Discuss your synthesis with a faculty member",
		},
		DeeperQuestions: []string{
			fmt.Sprintf("What assumptions does the standard account of %s rely on?", topic),
			"Which recent findings challenge the dominant view?",
			"How would a neighbouring discipline frame this problem?",
		},
		Resources: []domain.ResourceRef{
			{Type: "journal", Title: "Review of Educational Research", Relevance: "Syntheses of the research base"},
			{Type: "book", Title: "The Craft of Research", Author: "Booth, Colomb and Williams", Relevance: "Turning questions into arguments"},
		},
		ThinkingElevation:           "Moves the question from recall to evaluation and synthesis.",
		InterdisciplinaryConnection: []string{"Philosophy of Science", "Cognitive Psychology"},
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// queryLine returns the text after the last "query:" marker, or the last
// non-empty line.
func queryLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		l := strings.TrimSpace(lines[i])
		if idx := strings.Index(strings.ToLower(l), "query:"); idx >= 0 {
			return strings.Trim(strings.TrimSpace(l[idx+len("query:"):]), `"`)
		}
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

func leadSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	end := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			end = i + 1
			if n--; n == 0 {
				break
			}
		}
	}
	if end == 0 {
		return text
	}
	return text[:end]
}

// HashEmbedder maps tokens into a fixed number of buckets. Texts sharing
// words get similar vectors.
type HashEmbedder struct {
	dims int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(e.dims)]++
	}
	return v, nil
}

func (e *HashEmbedder) Dimensions() int { return e.dims }
