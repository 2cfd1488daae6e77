package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const receiptPrompt = `Analyze this construction material receipt (Nota Toko Bangunan) from Indonesia.

Tasks:
1. Extract the Date (YYYY-MM-DD).
2. Extract all line items.
   - Description: Clear material name.
   - Volume: Numeric quantity.
   - Unit: e.g., 'sak', 'btg', 'm3', 'rit', 'kg'.
   - PricePerUnit: Numeric price per item.
   - TotalPrice: Volume * PricePerUnit.

Return pure JSON and ignore non-material text.`

// GeminiRecognizer calls the generativelanguage REST API with a JSON
// response schema so extraction comes back machine-readable.
type GeminiRecognizer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiRecognizer(apiKey, model string) *GeminiRecognizer {
	return &GeminiRecognizer{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64         `json:"temperature"`
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

// receiptSchema mirrors the Receipt shape so the model cannot return free
// text.
var receiptSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "date": {"type": "STRING"},
    "items": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "description": {"type": "STRING"},
          "volume": {"type": "NUMBER"},
          "unit": {"type": "STRING"},
          "pricePerUnit": {"type": "NUMBER"},
          "totalPrice": {"type": "NUMBER"}
        },
        "required": ["description", "volume", "unit", "totalPrice"]
      }
    }
  },
  "required": ["date", "items"]
}`)

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiRecognizer) Parse(ctx context.Context, imageDataURI string) (*Receipt, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("gemini api key missing")
	}

	mimeType, payload := splitDataURI(imageDataURI)
	if !validBase64(payload) {
		return nil, fmt.Errorf("image is not valid base64")
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &inlineData{MimeType: mimeType, Data: payload}},
				{Text: receiptPrompt},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0,
			ResponseMimeType: "application/json",
			ResponseSchema:   receiptSchema,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	// The model occasionally wraps the payload in markdown fences despite
	// the response MIME type.
	text := parsed.Candidates[0].Content.Parts[0].Text
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	var receipt Receipt
	if err := json.Unmarshal([]byte(text), &receipt); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &receipt, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
