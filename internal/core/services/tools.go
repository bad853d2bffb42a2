package services

import (
	"errors"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driven"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Ensure ToolService implements the interface.
var _ driving.ToolService = (*ToolService)(nil)

// Tool names an external executable and what the build uses it for.
type Tool struct {
	Name    string
	Purpose string
}

// ToolService reports which external tools the locator can resolve.
type ToolService struct {
	locator driven.ToolLocator
	tools   []Tool
}

// NewToolService creates a tool service that checks tools in order.
func NewToolService(locator driven.ToolLocator, tools []Tool) *ToolService {
	return &ToolService{locator: locator, tools: tools}
}

// Check locates every tool. Missing tools are reported, not returned as errors.
func (s *ToolService) Check() []driving.ToolStatus {
	statuses := make([]driving.ToolStatus, 0, len(s.tools))
	for _, t := range s.tools {
		status := driving.ToolStatus{Name: t.Name, Purpose: t.Purpose}

		path, err := s.locator.Locate(t.Name)
		switch {
		case err == nil:
			status.Path = path
			status.Found = true
		case errors.Is(err, domain.ErrToolNotFound):
			logger.Debug("tools: %s not found", t.Name)
		default:
			logger.Warn("tools: locate %s: %v", t.Name, err)
		}

		statuses = append(statuses, status)
	}
	return statuses
}
