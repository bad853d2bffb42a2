//go:build cgo

package tesseract

import (
	"fmt"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

type gosseractRecognizer struct {
	client *gosseract.Client
}

func openRecognizer(languages []string) (recognizer, error) {
	c := gosseract.NewClient()
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	return &gosseractRecognizer{client: c}, nil
}

func (g *gosseractRecognizer) Words(img []byte, dpi int) ([]word, error) {
	if err := g.client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if dpi > 0 {
		if err := g.client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(dpi)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}
	boxes, err := g.client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	words := make([]word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, word{
			Text:       b.Word,
			Confidence: b.Confidence / 100.0,
			Block:      b.BlockNum,
			Par:        b.ParNum,
			Line:       b.LineNum,
		})
	}
	return words, nil
}

func (g *gosseractRecognizer) Close() error {
	return g.client.Close()
}
