package analyzer

import (
	"context"
	"fmt"
	"testing"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Close() error { return nil }

func TestHeuristicClassification(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())
	ctx := context.Background()

	tests := []struct {
		description string
		expected    models.ProjectType
	}{
		{"Build me an online shop for sneakers", models.ProjectTypeEcommerce},
		{"An analytics dashboard for sales", models.ProjectTypeDashboard},
		{"A personal blog with a CMS", models.ProjectTypeBlog},
		{"Real-time chat for teams", models.ProjectTypeChat},
		{"A CRM for tracking customer leads", models.ProjectTypeCRM},
		{"Something generic", models.ProjectTypeWebApp},
	}

	for _, tt := range tests {
		analysis := svc.Analyze(ctx, tt.description)
		if analysis.ProjectType != tt.expected {
			t.Errorf("Analyze(%q) type = %s, want %s", tt.description, analysis.ProjectType, tt.expected)
		}
		if len(analysis.Features) == 0 {
			t.Errorf("Analyze(%q) returned no features", tt.description)
		}
	}
}

func TestLLMAnalysisParsed(t *testing.T) {
	llm := &stubLLM{response: "```json\n{\"project_type\": \"ecommerce\", \"features\": [\"cart\"], \"tech_stack\": {\"frontend\": \"react\"}, \"complexity\": \"high\"}\n```"}
	svc := NewService(llm, arbor.NewLogger())

	analysis := svc.Analyze(context.Background(), "sneaker store")
	if analysis.ProjectType != models.ProjectTypeEcommerce {
		t.Errorf("Expected ecommerce, got %s", analysis.ProjectType)
	}
	if analysis.Complexity != "high" {
		t.Errorf("Expected high complexity, got %s", analysis.Complexity)
	}
}

func TestLLMFailureFallsBack(t *testing.T) {
	llm := &stubLLM{err: fmt.Errorf("rate limited")}
	svc := NewService(llm, arbor.NewLogger())

	analysis := svc.Analyze(context.Background(), "a dashboard")
	if analysis.ProjectType != models.ProjectTypeDashboard {
		t.Errorf("Expected heuristic dashboard result, got %s", analysis.ProjectType)
	}
}

func TestUnparseableLLMResponseFallsBack(t *testing.T) {
	llm := &stubLLM{response: "I cannot answer that."}
	svc := NewService(llm, arbor.NewLogger())

	analysis := svc.Analyze(context.Background(), "an online shop")
	if analysis.ProjectType != models.ProjectTypeEcommerce {
		t.Errorf("Expected heuristic ecommerce result, got %s", analysis.ProjectType)
	}
}

func TestInvalidProjectTypeDefaultsToWebApp(t *testing.T) {
	llm := &stubLLM{response: "{\"project_type\": \"spaceship\"}"}
	svc := NewService(llm, arbor.NewLogger())

	analysis := svc.Analyze(context.Background(), "whatever")
	if analysis.ProjectType != models.ProjectTypeWebApp {
		t.Errorf("Expected web_app default, got %s", analysis.ProjectType)
	}
}
