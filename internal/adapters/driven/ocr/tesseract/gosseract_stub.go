//go:build !cgo

package tesseract

import (
	"fmt"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

func openRecognizer([]string) (recognizer, error) {
	return nil, fmt.Errorf("tesseract requires cgo: %w", domain.ErrNotImplemented)
}
