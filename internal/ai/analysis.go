package ai

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

const (
	// MatchThreshold is the lowest score that may count as a match.
	MatchThreshold = 70
	MaxScore       = 100
)

// Analysis is the scored verdict for one job.
type Analysis struct {
	MatchScore int    `json:"match_score" jsonschema:"minimum=0,maximum=100,description=0 is not a match and 100 is a perfect match"`
	Reasoning  string `json:"reasoning" jsonschema:"description=Two or three sentences explaining the score"`
	IsMatch    bool   `json:"is_match" jsonschema:"description=True when match_score is 70 or higher"`
}

// AnalysisSchema is the strict JSON schema of Analysis used for structured output.
var AnalysisSchema = func() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&Analysis{})
}()

// AnalysisRequest wraps a scoring prompt into a provider request.
func AnalysisRequest(prompt string) Request {
	return Request{
		Prompt:     prompt,
		Format:     FormatJSON,
		Schema:     AnalysisSchema,
		SchemaName: "job_analysis",
	}
}

type rawAnalysis struct {
	MatchScore float64 `mapstructure:"match_score"`
	Reasoning  string  `mapstructure:"reasoning"`
	IsMatch    bool    `mapstructure:"is_match"`
}

var errNoJSONObject = errors.New("no json object found")

// ExtractJSONObject returns the text between the first '{' and the last '}'.
func ExtractJSONObject(raw string) (string, bool) {
	return between(raw, "{", "}")
}

// ExtractJSONArray returns the text between the first '[' and the last ']'.
func ExtractJSONArray(raw string) (string, bool) {
	return between(raw, "[", "]")
}

func between(raw, open, close string) (string, bool) {
	start := strings.Index(raw, open)
	end := strings.LastIndex(raw, close)
	if start == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseAnalysis decodes a model answer that may wrap the JSON object in prose or code fences.
// Loosely typed values such as "85" or "true" are accepted.
func ParseAnalysis(raw string) (*Analysis, error) {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, &ParseError{Raw: raw, Err: errNoJSONObject}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(obj), &data); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var decoded rawAnalysis
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if err := decoder.Decode(data); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	analysis := Analysis{
		MatchScore: clampScore(decoded.MatchScore),
		Reasoning:  strings.TrimSpace(decoded.Reasoning),
		IsMatch:    decoded.IsMatch,
	}
	if analysis.MatchScore < MatchThreshold {
		analysis.IsMatch = false
	}

	return &analysis, nil
}

func clampScore(score float64) int {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return int(math.Round(score))
	}
}
