package ocr

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

type spaceResponse struct {
	ParsedResults         []spaceParsedResult `json:"ParsedResults"`
	IsErroredOnProcessing bool                `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage     `json:"ErrorMessage"`
	ErrorDetails          string              `json:"ErrorDetails"`
}

type spaceParsedResult struct {
	ParsedText   string          `json:"ParsedText"`
	ErrorMessage json.RawMessage `json:"ErrorMessage"`
}

// buildResponseSchema describes the subset of the OCR.space response we rely on.
func buildResponseSchema() map[string]any {
	message := map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "null"},
			map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
	return map[string]any{
		"type":     "object",
		"required": []string{"IsErroredOnProcessing"},
		"properties": map[string]any{
			"IsErroredOnProcessing": map[string]any{"type": "boolean"},
			"ErrorMessage":          message,
			"ErrorDetails":          map[string]any{"type": []string{"string", "null"}},
			"ParsedResults": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"ParsedText":   map[string]any{"type": []string{"string", "null"}},
						"ErrorMessage": message,
					},
				},
			},
		},
	}
}

var responseSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return common.CompileSchema("ocrspace.json", buildResponseSchema())
})

// parseSpaceResponse validates and decodes a response body and returns the
// concatenated page text.
func parseSpaceResponse(raw []byte) (string, int, error) {
	if !json.Valid(raw) {
		return "", 0, fmt.Errorf("%w: %s", ErrNonJSONResponse, truncate(strings.TrimSpace(string(raw)), 200))
	}
	schema, err := responseSchema()
	if err != nil {
		return "", 0, err
	}
	if err := common.ValidateJSON(schema, raw); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrNonJSONResponse, err)
	}

	var resp spaceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrNonJSONResponse, err)
	}

	if resp.IsErroredOnProcessing {
		msg := messageText(resp.ErrorMessage)
		if msg == "" {
			msg = resp.ErrorDetails
		}
		if msg == "" {
			msg = "unknown error"
		}
		return "", 0, fmt.Errorf("%w: %s", ErrOCRFailed, msg)
	}

	texts := make([]string, 0, len(resp.ParsedResults))
	for _, pr := range resp.ParsedResults {
		if t := strings.TrimSpace(pr.ParsedText); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return "", len(resp.ParsedResults), fmt.Errorf("%w: no text in response", ErrOCRFailed)
	}
	return strings.Join(texts, "\n"), len(resp.ParsedResults), nil
}

// messageText flattens ErrorMessage, which the service sends either as a
// string or as a list of strings.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
