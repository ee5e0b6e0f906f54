package pubmed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const noAbstract = "No abstract available"

// Article is one parsed PubMed record. Title is a string, or a map of
// element name to text when the title carries inline markup; "#text" holds
// the text outside the markup.
type Article struct {
	UID       string
	Title     any
	Published string
	Copyright string
	Summary   string
}

// Metadata returns the document metadata for the article. The summary is
// the page content and is not repeated here.
func (a *Article) Metadata() map[string]any {
	return map[string]any{
		"uid":                   a.UID,
		"Title":                 a.Title,
		"Published":             a.Published,
		"Copyright Information": a.Copyright,
	}
}

type articleSet struct {
	XMLName  xml.Name `xml:"PubmedArticleSet"`
	Articles []struct {
		Article articleXML `xml:"MedlineCitation>Article"`
	} `xml:"PubmedArticle"`
}

type articleXML struct {
	Title    markupText `xml:"ArticleTitle"`
	Abstract struct {
		Texts     []abstractText `xml:"AbstractText"`
		Copyright string         `xml:"CopyrightInformation"`
	} `xml:"Abstract"`
	Date struct {
		Year  string `xml:"Year"`
		Month string `xml:"Month"`
		Day   string `xml:"Day"`
	} `xml:"ArticleDate"`
}

type markupText struct {
	Text  string        `xml:",chardata"`
	Parts []markupChild `xml:",any"`
}

type markupChild struct {
	XMLName xml.Name
	Inner   string `xml:",innerxml"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Inner string `xml:",innerxml"`
}

func parseArticle(uid string, body []byte) (*Article, error) {
	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode efetch response for %s: %w", uid, err)
	}
	if len(set.Articles) == 0 {
		return nil, fmt.Errorf("no article in efetch response for %s", uid)
	}
	ar := set.Articles[0].Article

	return &Article{
		UID:       uid,
		Title:     ar.Title.value(),
		Published: strings.Join([]string{ar.Date.Year, ar.Date.Month, ar.Date.Day}, "-"),
		Copyright: strings.TrimSpace(ar.Abstract.Copyright),
		Summary:   summarize(ar.Abstract.Texts),
	}, nil
}

func (m markupText) value() any {
	text := strings.Join(strings.Fields(m.Text), " ")
	if len(m.Parts) == 0 {
		return text
	}
	out := map[string]any{}
	if text != "" {
		out["#text"] = text
	}
	for _, p := range m.Parts {
		name := p.XMLName.Local
		part := plainText(p.Inner)
		if prev, ok := out[name].(string); ok {
			part = prev + " " + part
		}
		out[name] = part
	}
	return out
}

func summarize(texts []abstractText) string {
	var labelled, plain []string
	for _, t := range texts {
		text := plainText(t.Inner)
		if text == "" {
			continue
		}
		plain = append(plain, text)
		if t.Label != "" {
			labelled = append(labelled, t.Label+": "+text)
		}
	}

	switch {
	case len(labelled) > 0:
		return strings.Join(labelled, "\n")
	case len(plain) > 0:
		return strings.Join(plain, "\n")
	default:
		return noAbstract
	}
}

// plainText drops inline markup (<i>, <sup>, ...) and unescapes entities.
func plainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return strings.TrimSpace(fragment)
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
