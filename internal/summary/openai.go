package summary

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"grandpa/config"
)

const maxImages = 5

var errEmptyAnswer = errors.New("model returned no text")

// OpenAIGenerator talks to any OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(cfg *config.Config) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.SummaryAPIKey)
	if cfg.SummaryBaseURL != "" {
		clientConfig.BaseURL = cfg.SummaryBaseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.SummaryModel,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    []openai.ChatCompletionMessage{buildMessage(req)},
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyAnswer
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyAnswer
	}
	return text, nil
}

func buildMessage(req Request) openai.ChatCompletionMessage {
	prompt := buildPrompt(req)
	if len(req.Images) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
	for i, img := range req.Images {
		if i == maxImages {
			break
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data)),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

func buildPrompt(req Request) string {
	st, ok := styles[req.Style]
	if !ok {
		st = styles[StyleShort]
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = "(No written note)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are writing as the person whose journal this is. %s of YOUR day.\n\n", st.prompt)
	if len(req.Images) > 0 {
		fmt.Fprintf(&b, "You took %d photo(s) today. Look at the images and describe what YOU see and did.\n\n", req.PhotoCount)
	}
	fmt.Fprintf(&b, "Your journal note: %s\n\n", note)
	b.WriteString("Rules:\n")
	b.WriteString("- Write as \"I\". You ARE this person.\n")
	b.WriteString("- Start immediately with the summary, no preamble such as \"Here's a summary\".\n")
	b.WriteString("- No commentary about the task.\n")
	if len(req.Images) > 0 {
		b.WriteString("- Mention what is in your photos as part of your story.\n")
	}
	b.WriteString("\nNow write YOUR summary:")
	return b.String()
}
