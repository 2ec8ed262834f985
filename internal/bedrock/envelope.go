package bedrock

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Fixed parameters of every inference call made by the relay.
const (
	ModelID          = "anthropic.claude-3-haiku-20240307-v1:0"
	AnthropicVersion = "bedrock-2023-05-31"
	MaxTokens        = 1000
	ContentTypeJSON  = "application/json"
	RoleUser         = "user"
	BlockTypeText    = "text"
)

// ContentBlock is one unit of message content in the Anthropic Messages format.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is a single conversational turn. Content is always sent as a list
// of blocks, never as a bare string.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// InvokeBody is the provider payload carried in InvokeModelInput.Body.
type InvokeBody struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
}

// Usage reports token accounting returned by the model.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ResponseBody is the subset of the provider response the relay reads.
type ResponseBody struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Role       string         `json:"role"`
	StopReason string         `json:"stop_reason"`
	Content    []ContentBlock `json:"content"`
	Usage      Usage          `json:"usage"`
}

// NewInvokeBody wraps prompt in the fixed envelope.
func NewInvokeBody(prompt string) InvokeBody {
	return InvokeBody{
		AnthropicVersion: AnthropicVersion,
		MaxTokens:        MaxTokens,
		Messages: []Message{{
			Role:    RoleUser,
			Content: []ContentBlock{{Type: BlockTypeText, Text: prompt}},
		}},
	}
}

// NewInvokeModelInput builds the complete InvokeModel request for prompt.
func NewInvokeModelInput(prompt string) (*bedrockruntime.InvokeModelInput, error) {
	body, err := json.Marshal(NewInvokeBody(prompt))
	if err != nil {
		return nil, fmt.Errorf("encode invoke body: %w", err)
	}
	return &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(ModelID),
		ContentType: aws.String(ContentTypeJSON),
		Accept:      aws.String(ContentTypeJSON),
		Body:        body,
	}, nil
}

// DecodeResponse parses a provider response body.
func DecodeResponse(body []byte) (ResponseBody, error) {
	var rb ResponseBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return ResponseBody{}, fmt.Errorf("decode model response: %w", err)
	}
	return rb, nil
}

// Text returns the text of the first content block.
func (rb ResponseBody) Text() (string, error) {
	if len(rb.Content) == 0 {
		return "", ErrNoText
	}
	return rb.Content[0].Text, nil
}
