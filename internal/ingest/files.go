package ingest

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pdf "github.com/dslipak/pdf"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/net/html"
)

// MaxChunkLen is the chunk size, in bytes, for local files. PubMed
// abstracts are short and stored whole.
const MaxChunkLen = 2000

// LoadFiles walks root and turns every .md, .txt, .html, .htm and .pdf file
// into chunked documents. The uid of a chunk is its path relative to root,
// suffixed with the part number when the file was split.
func LoadFiles(root string) ([]schema.Document, error) {
	log.Printf("📂 loading local papers from %s", root)

	var docs []schema.Document
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTextFile(path) {
			return nil
		}

		content, err := readText(path)
		if err != nil {
			return err
		}
		if content == "" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		title := filenameToTitle(path)

		chunks := splitIntoChunks(content, MaxChunkLen)
		for i, c := range chunks {
			uid, chunkTitle := rel, title
			if len(chunks) > 1 {
				uid = fmt.Sprintf("%s#%d", rel, i+1)
				chunkTitle = fmt.Sprintf("%s (part %d)", title, i+1)
			}
			docs = append(docs, schema.Document{
				PageContent: c,
				Metadata: map[string]any{
					"uid":   uid,
					"Title": chunkTitle,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func readText(path string) (string, error) {
	lpath := strings.ToLower(path)

	var content string
	switch {
	case strings.HasSuffix(lpath, ".pdf"):
		text, err := extractTextFromPDF(path)
		if err != nil {
			return "", fmt.Errorf("read pdf %s: %w", path, err)
		}
		content = text

	case strings.HasSuffix(lpath, ".html") || strings.HasSuffix(lpath, ".htm"):
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		content = extractMainText(string(data))

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		content = string(data)
	}

	return sanitizeUTF8(strings.TrimSpace(content)), nil
}

func isTextFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", ".html", ".htm", ".pdf":
		return true
	}
	return false
}

func filenameToTitle(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.TrimSpace(base)
}

// extractMainText keeps the visible text of an HTML page, one text node per
// line.
func extractMainText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node, bool)

	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			}
		}

		if n.Type == html.TextNode && !skip {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	lines := strings.Split(b.String(), "\n")
	var filtered []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if len(l) > 1 {
			filtered = append(filtered, l)
		}
	}
	return strings.Join(filtered, "\n")
}

// splitIntoChunks packs whole lines into chunks of at most maxLen bytes.
// Lines longer than maxLen are cut.
func splitIntoChunks(content string, maxLen int) []string {
	content = sanitizeUTF8(strings.TrimSpace(content))
	if content == "" {
		return nil
	}
	if len(content) <= maxLen {
		return []string{content}
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunk := sanitizeUTF8(strings.TrimSpace(buf.String()))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				// maxLen is shorter than the first rune
				_, cut = utf8.DecodeRuneInString(line)
			}
			part := line[:cut]
			line = line[cut:]

			flush()
			buf.WriteString(part)
			flush()
		}

		if buf.Len()+len(line)+1 > maxLen {
			flush()
		}

		buf.WriteString(line)
		buf.WriteRune('\n')
	}

	flush()
	return chunks
}

func extractTextFromPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// sanitizeUTF8 drops invalid bytes; Postgres rejects them in text columns.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}
