// Package preview extracts plain text from uploaded attachments so the
// admin console can show a snippet without downloading the file.
package preview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

const maxPreviewRunes = 2000

// Supported reports whether a content type has a text preview.
func Supported(contentType string) bool {
	switch normalizeType(contentType) {
	case "application/pdf", "text/html", "text/plain":
		return true
	}
	return false
}

// Extract returns a plain-text snippet for the attachment payload.
func Extract(contentType string, data []byte) (string, error) {
	switch normalizeType(contentType) {
	case "application/pdf":
		return extractPDF(data)
	case "text/html":
		return extractHTML(data)
	case "text/plain":
		return clip(normalizeText(string(data))), nil
	}
	return "", fmt.Errorf("no preview for content type %q", contentType)
}

func normalizeType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		buf.WriteString(text)
		buf.WriteString(" ")
		if buf.Len() > maxPreviewRunes*4 {
			break
		}
	}
	text := normalizeText(buf.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return clip(text), nil
}

func extractHTML(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "br" || node.Data == "div" || node.Data == "li") {
			buf.WriteString(" ")
		}
	}
	walk(root)
	return clip(normalizeText(buf.String())), nil
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string) string {
	runes := []rune(s)
	if len(runes) <= maxPreviewRunes {
		return s
	}
	return string(runes[:maxPreviewRunes])
}
