package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jdanjohnson/handshake-ai/services/advisory/internal/llm"
)

// User-facing guidance for inputs too short to be worth a model call.
var (
	ErrTermsTooShortCheck   = errors.New("please enter at least 20 characters of your agreement terms to check")
	ErrTermsTooShortAnalyze = errors.New("please enter at least 20 characters of your agreement terms to analyze")
	ErrTitleTooShort        = errors.New("please enter a title of at least 5 characters to generate a description")
)

// Generic outcomes for model failures. The underlying cause is logged,
// never surfaced.
var (
	errCheckFailed    = errors.New("an unexpected error occurred while checking the agreement")
	errAnalyzeFailed  = errors.New("an unexpected error occurred while analyzing the agreement")
	errDescribeFailed = errors.New("an unexpected error occurred while generating the description")
)

type CompletenessResult struct {
	IsComplete     bool     `json:"isComplete"`
	MissingDetails []string `json:"missingDetails"`
	Suggestions    []string `json:"suggestions"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"` // "positive" or "improvement"
}

type AnalysisResult struct {
	Score           int              `json:"score"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
}

type DescriptionResult struct {
	Description string `json:"description"`
}

// The model's output must conform exactly to the declared shapes; a
// schema-violating response is an error condition, not data to pass along.
const completenessSchema = `{
	"type": "object",
	"required": ["isComplete", "missingDetails", "suggestions"],
	"properties": {
		"isComplete": {"type": "boolean"},
		"missingDetails": {"type": "array", "items": {"type": "string"}},
		"suggestions": {"type": "array", "items": {"type": "string"}}
	}
}`

const analysisSchema = `{
	"type": "object",
	"required": ["score", "summary", "recommendations"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"summary": {"type": "string"},
		"recommendations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "description", "type"],
				"properties": {
					"title": {"type": "string"},
					"description": {"type": "string"},
					"type": {"enum": ["positive", "improvement"]}
				}
			}
		}
	}
}`

const descriptionSchema = `{
	"type": "object",
	"required": ["description"],
	"properties": {
		"description": {"type": "string"}
	}
}`

func mustCompile(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://handshake.schemas.local/advisory/%s.schema.json", name)
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(err)
	}
	return compiled
}

var (
	completenessCompiled = mustCompile("completeness", completenessSchema)
	analysisCompiled     = mustCompile("analysis", analysisSchema)
	descriptionCompiled  = mustCompile("description", descriptionSchema)
)

// Advisor wraps the three advisory flows behind a uniform contract: plain
// text in, a validated JSON-shaped result or a user-safe error out. Each
// call is stateless request/response.
type Advisor struct {
	model llm.Model
}

func New(model llm.Model) *Advisor { return &Advisor{model: model} }

const completenessPrompt = `You are a legal expert reviewing an agreement to ensure it is complete.

Analyze the following agreement text and determine if any important details are missing.
Provide a list of any missing details and suggestions for what to add to the agreement to make it more complete.

Agreement Text: %s

Respond with a JSON object with exactly these keys:
- isComplete: true if the agreement appears complete, false otherwise.
- missingDetails: a list of important details that seem to be missing.
- suggestions: suggestions for what to add to the agreement.`

const analysisPrompt = `You are a legal expert scoring the health and fairness of an agreement.

Analyze the following agreement text. Score its legal health from 0 to 100 (higher is better),
summarize the analysis in one conversational sentence, and list recommendations. Each
recommendation either points out a positive aspect or an area for improvement.

Agreement Text: %s

Respond with a JSON object with exactly these keys:
- score: a number from 0 to 100.
- summary: a one-sentence conversational summary of the analysis results.
- recommendations: a list of objects with keys title, description, and type ("positive" or "improvement").`

const descriptionPrompt = `You are a helpful assistant who is an expert at writing simple, clear legal agreements.

Based on the provided agreement title, generate a concise, one-paragraph description for the deal.
This description will serve as the starting point for a simple legal agreement.
Focus on clarity and simplicity. The description should cover the essential purpose of the agreement.

Agreement Title: %s

Respond with a JSON object with exactly one key:
- description: a one-paragraph description of the deal.`

// CheckCompleteness flags likely-missing contractual details in termsText.
func (a *Advisor) CheckCompleteness(ctx context.Context, termsText string) (*CompletenessResult, error) {
	if utf8.RuneCountInString(termsText) < 20 {
		return nil, ErrTermsTooShortCheck
	}
	var out CompletenessResult
	if err := a.ask(ctx, fmt.Sprintf(completenessPrompt, termsText), completenessCompiled, &out); err != nil {
		log.Printf("advisory: completeness check failed: %v", err)
		return nil, errCheckFailed
	}
	return &out, nil
}

// AnalyzeAgreement scores and critiques the agreement terms.
func (a *Advisor) AnalyzeAgreement(ctx context.Context, termsText string) (*AnalysisResult, error) {
	if utf8.RuneCountInString(termsText) < 20 {
		return nil, ErrTermsTooShortAnalyze
	}
	var out AnalysisResult
	if err := a.ask(ctx, fmt.Sprintf(analysisPrompt, termsText), analysisCompiled, &out); err != nil {
		log.Printf("advisory: analysis failed: %v", err)
		return nil, errAnalyzeFailed
	}
	return &out, nil
}

// GenerateDescription drafts a one-paragraph deal description from a title.
func (a *Advisor) GenerateDescription(ctx context.Context, title string) (*DescriptionResult, error) {
	if utf8.RuneCountInString(title) < 5 {
		return nil, ErrTitleTooShort
	}
	var out DescriptionResult
	if err := a.ask(ctx, fmt.Sprintf(descriptionPrompt, title), descriptionCompiled, &out); err != nil {
		log.Printf("advisory: description generation failed: %v", err)
		return nil, errDescribeFailed
	}
	return &out, nil
}

func (a *Advisor) ask(ctx context.Context, prompt string, schema *jsonschema.Schema, dst any) error {
	raw, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	payload := extractJSON(raw)
	var parsed any
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return fmt.Errorf("model output is not JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("model output violates schema: %w", err)
	}
	return json.Unmarshal([]byte(payload), dst)
}

// extractJSON strips markdown fences and surrounding prose; models often
// wrap the object even when told not to.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
