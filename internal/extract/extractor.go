// Package extract turns a raw vendor description into a structured field
// set by way of a single-turn inference call. The backend replies in free
// text; the first well-formed JSON object found in the reply is parsed and
// everything around it is ignored.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"

	"listing-backend/internal/model"
)

// temperature keeps the extraction mostly deterministic while leaving the
// model room to phrase titles and body copy.
const temperature = 0.4

const systemPrompt = `You are a product listing parser for an apparel storefront. The input is a
product description a vendor sent over WhatsApp. Extract the fields below
and respond with a single JSON object, nothing else.

Fields:
- "title": clean short product title
- "body_html": the description formatted as HTML
- "price": the selling price; when two monetary figures appear (e.g. "CP/SP"
  or "5000/8000"), price is the HIGHER of the two
- "cost_price": the LOWER of the two monetary figures, or empty if only one
- "size": the size if stated, else "Free Size"
- "tags": comma-separated keywords or materials
- "product_type": e.g. kurti, saree, lehenga, dress
- "category": one of ethnic, western, casual, formal, accessories
- "fabric": the fabric if stated
- "style": the style if stated
- "pattern": the pattern or print if stated
- "work_details": embroidery/embellishment detail if stated
- "colour": the dominant colour if stated
- "collections": comma-separated collection names if any
- "size_guide": sizing guidance if stated
- "care_instructions": care guidance if stated

Unknown fields are returned as empty strings, never invented.

Example input:
  FABRIC - Pure Silk
  PRICE - 5000/8000
  Banarasi saree with zari work

Example response:
{
  "title": "Banarasi Pure Silk Saree",
  "body_html": "<p>Banarasi saree with zari work. Fabric: Pure Silk.</p>",
  "price": "8000",
  "cost_price": "5000",
  "size": "Free Size",
  "tags": "silk, banarasi, saree",
  "product_type": "saree",
  "category": "ethnic",
  "fabric": "Pure Silk",
  "style": "Banarasi",
  "pattern": "",
  "work_details": "zari work",
  "colour": "",
  "collections": "",
  "size_guide": "",
  "care_instructions": ""
}`

// jsonObjectPattern locates the first {...} block in the reply, tolerating
// commentary the model wraps around it.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Error reports a failed extraction. Raw carries the offending backend
// reply for operator diagnosis.
type Error struct {
	Reason string
	Raw    string
	Err    error
}

func (e *Error) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("extract: %s: %q", e.Reason, e.Raw)
	}
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", e.Reason, e.Err)
	}
	return "extract: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds inference backend settings.
type Config struct {
	APIKey  string
	BaseURL string // optional; any OpenAI-compatible endpoint
	Model   string
}

// Extractor sends vendor text to the inference backend and parses the reply.
type Extractor struct {
	client openai.Client
	model  string
	log    *zap.Logger
}

// New creates an extractor for the configured backend.
func New(cfg Config, log *zap.Logger) *Extractor {
	// The pipeline never retries external calls; neither does the client.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Extractor{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		log:    log,
	}
}

// Extract runs one inference call over the raw vendor text and returns the
// best-effort field set. Values are unvalidated strings; the normalizer
// owns defaulting and numeric cleanup.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*model.ExtractedFields, error) {
	completion, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(rawText),
		},
		Model:       openai.ChatModel(e.model),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return nil, &Error{Reason: "backend call failed", Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &Error{Reason: "backend returned no choices"}
	}

	content := completion.Choices[0].Message.Content
	fields, err := ParseFields(content)
	if err != nil {
		return nil, err
	}

	e.log.Debug("fields extracted", zap.String("title", fields.Title))
	return fields, nil
}

// ParseFields scrapes the first JSON object out of a free-form reply and
// coerces it into a field set. Numeric JSON values are stringified so the
// normalizer sees a uniform shape.
func ParseFields(reply string) (*model.ExtractedFields, error) {
	jsonText := jsonObjectPattern.FindString(reply)
	if jsonText == "" {
		return nil, &Error{Reason: "no JSON object in reply", Raw: reply}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, &Error{Reason: "reply JSON did not parse", Raw: reply, Err: err}
	}

	return &model.ExtractedFields{
		Title:            fieldString(raw, "title"),
		BodyHTML:         fieldString(raw, "body_html"),
		Price:            fieldString(raw, "price"),
		CostPrice:        fieldString(raw, "cost_price"),
		Size:             fieldString(raw, "size"),
		Tags:             fieldString(raw, "tags"),
		ProductType:      fieldString(raw, "product_type"),
		Category:         fieldString(raw, "category"),
		Fabric:           fieldString(raw, "fabric"),
		Style:            fieldString(raw, "style"),
		Pattern:          fieldString(raw, "pattern"),
		WorkDetails:      fieldString(raw, "work_details"),
		Colour:           fieldString(raw, "colour"),
		Collections:      fieldString(raw, "collections"),
		SizeGuide:        fieldString(raw, "size_guide"),
		CareInstructions: fieldString(raw, "care_instructions"),
	}, nil
}

// fieldString coerces a parsed JSON value to string. Models occasionally
// emit prices as numbers despite the prompt.
func fieldString(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
