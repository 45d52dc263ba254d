package analyzer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ternarybob/appforge/internal/interfaces"
	"github.com/ternarybob/appforge/internal/models"
	"github.com/ternarybob/arbor"
)

const analysisSystemPrompt = `You are an expert assistant that analyzes user requests to build applications.
Analyze the request and return a structured response with:
1. Project type (web_app, mobile_app, dashboard, ecommerce, blog, crm, chat, api)
2. Required features
3. Technology recommendations (frontend, backend, database)
4. Estimated complexity
Return only valid JSON with keys: project_type, features, tech_stack, complexity.`

// Analysis is the structured result of requirement analysis
type Analysis struct {
	ProjectType models.ProjectType `json:"project_type"`
	Features    []string           `json:"features"`
	TechStack   map[string]string  `json:"tech_stack"`
	Complexity  string             `json:"complexity"`
}

// Service analyzes free-form project descriptions. When an LLM service is
// available it drives the analysis; otherwise (or when the model response
// can't be parsed) a keyword heuristic produces a deterministic result.
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates an analyzer. llm may be nil.
func NewService(llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		llm:    llm,
		logger: logger,
	}
}

// Analyze inspects a project description and classifies it
func (s *Service) Analyze(ctx context.Context, description string) *Analysis {
	if s.llm == nil {
		return s.heuristicAnalysis(description)
	}

	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: "User Request: " + description + "\n\nAnalyze this request and provide a project specification."},
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("LLM analysis failed, falling back to heuristics")
		return s.heuristicAnalysis(description)
	}

	analysis, err := parseAnalysis(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not parse LLM analysis, falling back to heuristics")
		return s.heuristicAnalysis(description)
	}

	if !analysis.ProjectType.IsValid() {
		analysis.ProjectType = models.ProjectTypeWebApp
	}
	return analysis
}

// parseAnalysis extracts the JSON object from a model response, tolerating
// markdown code fences around it
func parseAnalysis(response string) (*Analysis, error) {
	text := strings.TrimSpace(response)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// heuristicAnalysis classifies a request with keyword matching
func (s *Service) heuristicAnalysis(description string) *Analysis {
	lower := strings.ToLower(description)

	var projectType models.ProjectType
	switch {
	case strings.Contains(lower, "ecommerce") || strings.Contains(lower, "shop"):
		projectType = models.ProjectTypeEcommerce
	case strings.Contains(lower, "dashboard") || strings.Contains(lower, "analytics"):
		projectType = models.ProjectTypeDashboard
	case strings.Contains(lower, "blog") || strings.Contains(lower, "cms"):
		projectType = models.ProjectTypeBlog
	case strings.Contains(lower, "chat") || strings.Contains(lower, "messaging"):
		projectType = models.ProjectTypeChat
	case strings.Contains(lower, "crm") || strings.Contains(lower, "customer"):
		projectType = models.ProjectTypeCRM
	case strings.Contains(lower, "mobile"):
		projectType = models.ProjectTypeMobileApp
	case strings.Contains(lower, "api"):
		projectType = models.ProjectTypeAPI
	default:
		projectType = models.ProjectTypeWebApp
	}

	return &Analysis{
		ProjectType: projectType,
		Features:    []string{"user_authentication", "responsive_design"},
		TechStack: map[string]string{
			"frontend": "react",
			"backend":  "fastapi",
			"database": "mysql",
		},
		Complexity: "medium",
	}
}
