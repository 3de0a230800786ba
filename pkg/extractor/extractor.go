package extractor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xhad/esgx/internal/models"
)

type ExtractorConfig struct {
	// FragmentThreshold is the share of very short lines above which the
	// plain text is considered fragmented and rebuilt from word positions.
	FragmentThreshold float64
	MinTableRows      int
	MinTableCols      int
	MinDigitRatio     float64
	// OCR recognises text from sidecar page images when a PDF has no
	// extractable text layer. Nil disables the fallback.
	OCR Recognizer
}

// Recognizer turns a page image into text. Implemented by pkg/ocr.
type Recognizer interface {
	TextFromFile(path string) (string, error)
}

type Extractor struct {
	config ExtractorConfig
}

func NewWithConfig(config ExtractorConfig) Extractor {
	if config.FragmentThreshold == 0 {
		config.FragmentThreshold = 0.25
	}
	if config.MinTableRows == 0 {
		config.MinTableRows = 2
	}
	if config.MinTableCols == 0 {
		config.MinTableCols = 3
	}
	if config.MinDigitRatio == 0 {
		config.MinDigitRatio = 0.15
	}

	return Extractor{
		config: config,
	}
}

// minColumnGap is the horizontal gap, in points, treated as a column
// boundary when rebuilding lines from positioned words.
const minColumnGap = 6.0

// Extract pulls per-page text out of a PDF. Pages that fail to decode are
// skipped. When the plain text layer is fragmented the text is rebuilt from
// word positions; when there is no text layer at all and OCR is configured,
// sidecar page images are recognised instead.
func (e *Extractor) Extract(path string) (ex *models.Extraction, err error) {
	// The pdf package panics on some malformed files; one bad report must
	// not take down the whole run.
	defer func() {
		if r := recover(); r != nil {
			ex = nil
			err = fmt.Errorf("failed to parse %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]models.Page, 0, total)

	var plainParts []string
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		plain, perr := page.GetPlainText(nil)
		if perr != nil {
			log.Printf("extractor: page %d of %s: %v", i, filepath.Base(path), perr)
			plain = ""
		}
		plainParts = append(plainParts, plain)

		pages = append(pages, models.Page{
			Number: i,
			Text:   plain,
			Lines:  rowLines(page),
		})
	}

	text := strings.TrimSpace(strings.Join(plainParts, "\n"))
	method := "plain"

	if looksFragmented(text, e.config.FragmentThreshold) {
		// Rebuild from positioned words, which keeps reading order when the
		// plain text layer scatters single characters across lines.
		var rebuilt []string
		for i := range pages {
			rebuilt = append(rebuilt, strings.Join(pages[i].Lines, "\n"))
			pages[i].Text = strings.Join(pages[i].Lines, "\n")
		}
		text = strings.TrimSpace(strings.Join(rebuilt, "\n\n"))
		method = "layout"
	}

	if e.config.OCR != nil {
		if len(pages) == 0 {
			ocrText, ocrPages, oerr := e.ocrSidecars(path)
			if oerr != nil {
				log.Printf("extractor: ocr fallback for %s: %v", filepath.Base(path), oerr)
			} else if ocrText != "" {
				text = ocrText
				pages = ocrPages
				method = "ocr"
			}
		} else if n := e.recogniseEmptyPages(path, pages); n > 0 {
			// Scanned-appendix reports mix text pages with image-only pages;
			// rebuild the full text so the recognised pages are included.
			var parts []string
			for _, p := range pages {
				if strings.TrimSpace(p.Text) != "" {
					parts = append(parts, p.Text)
				}
			}
			text = strings.TrimSpace(strings.Join(parts, "\n\n"))
			if n == len(pages) {
				method = "ocr"
			} else {
				method = "mixed"
			}
		}
	}

	return &models.Extraction{
		Text:   text,
		Pages:  pages,
		Method: method,
		Chars:  len(text),
		Count:  total,
	}, nil
}

// rowLines rebuilds a page's lines from positioned words, inserting a
// double-space column separator at horizontal gaps so table detection can
// split cells later.
func rowLines(page pdf.Page) []string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	var lines []string
	for _, row := range rows {
		words := make([]pdf.Text, 0, len(row.Content))
		for _, w := range row.Content {
			if strings.TrimSpace(w.S) == "" {
				continue
			}
			words = append(words, w)
		}
		if len(words) == 0 {
			continue
		}
		sort.Slice(words, func(i, j int) bool { return words[i].X < words[j].X })

		var b strings.Builder
		for i, w := range words {
			if i > 0 {
				prev := words[i-1]
				if w.X-(prev.X+prev.W) >= minColumnGap {
					b.WriteString("  ")
				} else {
					b.WriteString(" ")
				}
			}
			b.WriteString(strings.TrimSpace(w.S))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// looksFragmented reports whether too many non-blank lines are one or two
// characters long, the signature of a scattered text layer.
func looksFragmented(text string, threshold float64) bool {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return true
	}

	short := 0
	for _, ln := range lines {
		if len(strings.TrimSpace(ln)) <= 2 {
			short++
		}
	}
	return float64(short)/float64(len(lines)) > threshold
}

// sidecarImages lists the pre-rendered page images stored next to the PDF
// under <stem>_pages/, sorted by name. Scanned reports have no text layer,
// so rendering the pages to PNG (outside this tool) and dropping them there
// is the supported route.
func sidecarImages(path string) ([]string, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Join(filepath.Dir(path), stem+"_pages")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("no sidecar images at %s: %w", dir, err)
	}

	var images []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			images = append(images, filepath.Join(dir, ent.Name()))
		}
	}
	sort.Strings(images)
	if len(images) == 0 {
		return nil, fmt.Errorf("no sidecar images at %s", dir)
	}
	return images, nil
}

// recogniseEmptyPages runs OCR over the sidecar image of every page that
// yielded no text, matching images to pages by sorted order. Pages that
// already have text are left alone. Returns how many pages were recognised.
func (e *Extractor) recogniseEmptyPages(path string, pages []models.Page) int {
	needsOCR := false
	for _, p := range pages {
		if pageEmpty(p) {
			needsOCR = true
			break
		}
	}
	if !needsOCR {
		return 0
	}

	images, err := sidecarImages(path)
	if err != nil {
		log.Printf("extractor: ocr fallback for %s: %v", filepath.Base(path), err)
		return 0
	}

	recognised := 0
	for i := range pages {
		if !pageEmpty(pages[i]) {
			continue
		}
		idx := pages[i].Number - 1
		if idx < 0 || idx >= len(images) {
			continue
		}
		text, rerr := e.config.OCR.TextFromFile(images[idx])
		if rerr != nil {
			log.Printf("extractor: ocr %s: %v", filepath.Base(images[idx]), rerr)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages[i].Text = text
		pages[i].Lines = strings.Split(text, "\n")
		recognised++
	}
	return recognised
}

func pageEmpty(p models.Page) bool {
	return strings.TrimSpace(p.Text) == "" && len(p.Lines) == 0
}

// ocrSidecars recognises every sidecar image of a PDF that decoded to no
// pages at all.
func (e *Extractor) ocrSidecars(path string) (string, []models.Page, error) {
	images, err := sidecarImages(path)
	if err != nil {
		return "", nil, err
	}

	var parts []string
	var pages []models.Page
	for i, img := range images {
		recognised, rerr := e.config.OCR.TextFromFile(img)
		if rerr != nil {
			log.Printf("extractor: ocr %s: %v", filepath.Base(img), rerr)
			continue
		}
		recognised = strings.TrimSpace(recognised)
		parts = append(parts, recognised)
		pages = append(pages, models.Page{
			Number: i + 1,
			Text:   recognised,
			Lines:  strings.Split(recognised, "\n"),
		})
	}

	return strings.TrimSpace(strings.Join(parts, "\n\n")), pages, nil
}
