package trending

import (
	"strings"

	"github.com/benvon/postcraft/internal/services/ai"
)

// ExtractedTopic is one topic the model pulled out of the headlines
type ExtractedTopic struct {
	Topic           string   `json:"topic"`
	Category        string   `json:"category"`
	SuggestedAngles []string `json:"suggested_angles"`
	Industries      []string `json:"industries"`
}

// EmbeddingText is the text embedded for the topic
func (t ExtractedTopic) EmbeddingText() string {
	parts := append([]string{t.Topic, t.Category}, t.SuggestedAngles...)
	return strings.Join(parts, " ")
}

// BuildExtractionPrompt renders the topic extraction prompt
func BuildExtractionPrompt(headlines []string) string {
	return `Analyze these news headlines and extract the top 10 trending topics relevant to professionals on LinkedIn.

Headlines:
` + strings.Join(headlines, "\n") + `

For each topic, provide:
1. The main topic (concise, 2-5 words)
2. Category (Business, Technology, Careers, Leadership, or Industry Trends)
3. 3 suggested angles for LinkedIn posts
4. Relevant industries

Return as JSON array:
[
  {
    "topic": "topic name",
    "category": "category",
    "suggested_angles": ["angle 1", "angle 2", "angle 3"],
    "industries": ["industry 1", "industry 2"]
  }
]`
}

// ParseTopics decodes the topic array from a model response and drops entries without a topic
func ParseTopics(raw string) ([]ExtractedTopic, error) {
	var extracted []ExtractedTopic
	if err := ai.DecodeJSONArray(raw, &extracted); err != nil {
		return nil, err
	}
	topics := extracted[:0]
	for _, t := range extracted {
		t.Topic = strings.TrimSpace(t.Topic)
		if t.Topic == "" {
			continue
		}
		topics = append(topics, t)
	}
	return topics, nil
}
