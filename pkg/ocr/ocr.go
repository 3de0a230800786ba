package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type EngineConfig struct {
	Language string
}

// Engine recognises text from page images rendered out of scanned PDFs.
// It needs a tesseract installation, which is why the OCR fallback is
// disabled unless configured.
type Engine struct {
	config EngineConfig
}

func NewWithConfig(config EngineConfig) Engine {
	if config.Language == "" {
		config.Language = "eng"
	}

	return Engine{
		config: config,
	}
}

// TextFromFile runs tesseract over a single page image.
func (e *Engine) TextFromFile(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.config.Language); err != nil {
		return "", fmt.Errorf("failed to set OCR language %q: %w", e.config.Language, err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("failed to load image %s: %w", path, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed for %s: %w", path, err)
	}
	return text, nil
}

// Text recognises text from raw image bytes.
func (e *Engine) Text(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.config.Language); err != nil {
		return "", fmt.Errorf("failed to set OCR language %q: %w", e.config.Language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image bytes: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return text, nil
}
