package generation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/benvon/postcraft/internal/models"
)

const (
	maxPromptItems         = 5
	templateExampleExcerpt = 200
	communityExcerpt       = 300
	memoryExcerpt          = 200

	// FallbackVoice is used when the user has no calibrated voice profile
	FallbackVoice = "No voice profile calibrated yet. Use a professional yet conversational tone."
)

// PromptInput is everything retrieved for one generation request
type PromptInput struct {
	Topic          string
	Context        string
	Voice          *models.VoiceProfile
	Templates      []*models.Template
	CommunityPosts []*models.CommunityPost
	Memories       []*models.UserMemory
}

// AssemblePrompt renders the generation prompt for one variation. It is pure:
// the same input always yields the same string.
func AssemblePrompt(in PromptInput, variation models.VariationType) string {
	var b strings.Builder

	b.WriteString("You are an expert LinkedIn content creator. Write a viral LinkedIn post about:\n\n")
	b.WriteString("TOPIC: " + in.Topic + "\n")
	if in.Context != "" {
		b.WriteString("ADDITIONAL CONTEXT: " + in.Context)
	}
	b.WriteString("\n\n")
	b.WriteString(voiceSection(in.Voice))
	b.WriteString("\n\n")
	b.WriteString(templatesSection(in.Templates))
	b.WriteString("\n\n")
	b.WriteString(communitySection(in.CommunityPosts))
	b.WriteString("\n\n")
	b.WriteString(memorySection(in.Memories))
	b.WriteString("\n\n")
	b.WriteString("VARIATION TYPE: " + string(variation) + "\n")
	b.WriteString("Instructions: " + variation.ToneInstruction() + "\n\n")
	b.WriteString(`Requirements:
1. Write ONLY the post content (no meta-commentary)
2. Use line breaks strategically for readability
3. Include a strong hook in the first line
4. End with a question or call-to-action
5. Match the voice profile style exactly
6. 150-300 words ideally
7. Make it engaging and shareable

Write the post now:`)

	return b.String()
}

func voiceSection(p *models.VoiceProfile) string {
	if p == nil || !p.IsCalibrated {
		return FallbackVoice
	}

	sentence, opening, closing := "varied", "varied", "varied"
	if a := p.FullAnalysis; a != nil {
		sentence = orDefault(a.SentenceStructure, sentence)
		opening = orDefault(a.OpeningStyle, opening)
		closing = orDefault(a.ClosingStyle, closing)
	}

	return fmt.Sprintf(`
Voice Profile (MUST match this style):
- Tone: %s
- Formality: %d%%
- Storytelling: %s
- Vocabulary: %s
- Emoji usage: %s
- Common phrases: %s
- Sentence structure: %s
- Opening style: %s
- Closing style: %s
`,
		p.Tone,
		int(math.Round(p.Formality()*100)),
		p.StorytellingStyle,
		p.VocabularyLevel,
		p.EmojiUsage,
		strings.Join(p.CommonPhrases, ", "),
		sentence,
		opening,
		closing,
	)
}

func templatesSection(templates []*models.Template) string {
	if len(templates) == 0 {
		return ""
	}
	entries := make([]string, 0, maxPromptItems)
	for i, t := range limit(templates) {
		entries = append(entries, fmt.Sprintf("\nTemplate %d: %s (%s)\nStructure: %s\nExample: %s...",
			i+1, t.Name, t.Category, t.TemplateStructure, excerpt(t.ExamplePost, templateExampleExcerpt)))
	}
	return "\nRelevant Templates (use as structural inspiration):\n" + strings.Join(entries, "\n---\n") + "\n"
}

func communitySection(posts []*models.CommunityPost) string {
	if len(posts) == 0 {
		return ""
	}
	entries := make([]string, 0, maxPromptItems)
	for i, p := range limit(posts) {
		engagement := "high"
		if p.EngagementRate != nil && *p.EngagementRate != 0 {
			engagement = strconv.FormatFloat(*p.EngagementRate, 'f', -1, 64)
		}
		entries = append(entries, fmt.Sprintf("\nExample %d (Engagement: %s):\n%s...",
			i+1, engagement, excerpt(p.Content, communityExcerpt)))
	}
	return "\nHigh-Engagement Examples (for inspiration):\n" + strings.Join(entries, "\n---\n") + "\n"
}

func memorySection(memories []*models.UserMemory) string {
	if len(memories) == 0 {
		return ""
	}
	entries := make([]string, 0, maxPromptItems)
	for i, m := range limit(memories) {
		entries = append(entries, fmt.Sprintf("\nMemory %d (%s):\n%s...",
			i+1, m.ContentType, excerpt(m.Content, memoryExcerpt)))
	}
	return "\nYour Previous Content (for consistency):\n" + strings.Join(entries, "\n---\n") + "\n"
}

func limit[T any](items []T) []T {
	if len(items) > maxPromptItems {
		return items[:maxPromptItems]
	}
	return items
}

// excerpt returns the first n runes of s
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
