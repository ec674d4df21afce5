package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-2.0-flash"

// GeminiParser implements DraftParser using Google's Gemini models.
type GeminiParser struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiParser initializes a Gemini client in JSON response mode.
func NewGeminiParser(ctx context.Context, apiKey string) (*GeminiParser, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(geminiModel)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)

	return &GeminiParser{client: client, model: model}, nil
}

func (p *GeminiParser) Close() {
	p.client.Close()
}

func (p *GeminiParser) ParseRideRequest(ctx context.Context, message string, hints map[string]string) (*RideDraft, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("gemini: empty message")
	}
	prompt := fmt.Sprintf("%s\n\nUser Message: %s", buildPrompt(hints), message)

	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return decodeDraft(text.String())
}

func decodeDraft(raw string) (*RideDraft, error) {
	clean := cleanJSONString(raw)
	var d RideDraft
	if err := json.Unmarshal([]byte(clean), &d); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, clean)
	}
	if d.Passengers <= 0 {
		d.Passengers = 1
	}
	return &d, nil
}

func buildPrompt(hints map[string]string) string {
	currentTime := hints["current_time"]
	if currentTime == "" {
		currentTime = "UNKNOWN_TIME"
	}
	recent := hints["recent_locations"]
	if recent == "" {
		recent = "NONE"
	}
	here := hints["user_location"]
	if here == "" {
		here = "UNKNOWN"
	}

	return fmt.Sprintf(`Role: You fill in a ride request form from one user message.
Context:
- Current Time: %s
- Recently Used Locations: %s
- User's Current Location: %s

RULES:
1. "destination" is where the user wants to go. Use the exact wording of a recently used location when the user clearly refers to it.
2. "pickup" is only set when the user names a starting point; otherwise null. "here" or "my location" means null.
3. "passengers" is the number of riders (1 to 4). Default 1.
4. "ride_class" is "economy", "premium" or "luxury" only if the user asks for one; otherwise omit it.
5. "pickup_time" is an RFC3339 timestamp with offset when the user asks for a later pickup; null for now.
   A time earlier than Current Time today means tomorrow.
6. "notes" holds instructions for the driver (luggage, gate number, pets).
7. "reply" is one short sentence for the user. If the destination is missing, ask for it.
8. Never invent addresses.

Output JSON Schema:
{
  "destination": "string or null",
  "pickup": "string or null",
  "passengers": integer,
  "ride_class": "economy" | "premium" | "luxury",
  "pickup_time": "RFC3339 string or null",
  "notes": "string",
  "reply": "string"
}
`, currentTime, recent, here)
}

// cleanJSONString removes markdown code fences if present.
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
