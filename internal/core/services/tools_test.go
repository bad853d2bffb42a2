package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

type mapLocator map[string]string

func (m mapLocator) Locate(name string) (string, error) {
	if path, ok := m[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
}

type brokenLocator struct{}

func (brokenLocator) Locate(string) (string, error) {
	return "", errors.New("permission denied")
}

func TestToolService_Check(t *testing.T) {
	locator := mapLocator{"pdftotext": "/usr/bin/pdftotext"}
	service := NewToolService(locator, []Tool{
		{Name: "pdftotext", Purpose: "PDF text layer extraction"},
		{Name: "djvutxt", Purpose: "DjVu text layer extraction"},
	})

	statuses := service.Check()

	require.Len(t, statuses, 2)
	assert.Equal(t, "pdftotext", statuses[0].Name)
	assert.True(t, statuses[0].Found)
	assert.Equal(t, "/usr/bin/pdftotext", statuses[0].Path)
	assert.Equal(t, "PDF text layer extraction", statuses[0].Purpose)

	assert.Equal(t, "djvutxt", statuses[1].Name)
	assert.False(t, statuses[1].Found)
	assert.Empty(t, statuses[1].Path)
}

func TestToolService_Check_UnexpectedErrorIsNotFound(t *testing.T) {
	service := NewToolService(brokenLocator{}, []Tool{{Name: "ddjvu"}})

	statuses := service.Check()

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Found)
}

func TestToolService_Check_NoTools(t *testing.T) {
	assert.Empty(t, NewToolService(mapLocator{}, nil).Check())
}
