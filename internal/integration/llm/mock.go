package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"

	"github.com/vitiscan/treatment-plan/internal/entity"
)

var diseaseNameRe = regexp.MustCompile(`Disease name: "([^"]*)"`)

// MockConnector answers with a canned, fenced JSON plan naming the disease
// found in the prompt.
type MockConnector struct{}

func NewMockConnector() *MockConnector {
	return &MockConnector{}
}

func (m *MockConnector) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", entity.ErrEmptyPrompt
	}

	ctxzap.Info(ctx, "[MOCK] requesting completion from LLM service")

	disease := "the detected disease"
	if match := diseaseNameRe.FindStringSubmatch(prompt); match != nil && match[1] != "" {
		disease = match[1]
	}

	return "```json\n{\n" +
		`  "diagnostic": "Symptoms are consistent with ` + disease + `. Act quickly to limit spread to healthy vines.",` + "\n" +
		`  "treatment_actions": ["Apply the recommended product at the computed dose.", "Remove and destroy heavily infected organs."],` + "\n" +
		`  "preventive_actions": ["Improve canopy ventilation.", "Monitor the plot after every rainfall."],` + "\n" +
		`  "warnings": ["Respect the pre-harvest interval of the product."]` + "\n" +
		"}\n```", nil
}
