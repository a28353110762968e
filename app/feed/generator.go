package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"
)

// Channel describes the RSS channel wrapped around a list of articles.
type Channel struct {
	Title       string
	Link        string
	Description string
	SelfLink    string
	Language    string
	Generator   string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders articles as an RSS 2.0 document. Articles are written in the
// order given.
func (g *Generator) Run(channel Channel, articles []Article) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	description := channel.Description
	if description == "" {
		description = fmt.Sprintf("%d articles", len(articles))
	}
	g.writeElement(&buf, "description", description, 4)

	if channel.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(articles) > 0 && articles[0].PubDate != nil {
		lastBuildDate = *articles[0].PubDate
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", channel.Generator, 4)
	g.writeElement(&buf, "language", channel.Language, 4)

	for _, article := range articles {
		g.writeItem(&buf, article)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, article Article) {
	buf.WriteString("    <item>\n")

	if article.ID != "" {
		buf.WriteString("      <guid isPermaLink=\"false\">")
		xml.EscapeText(buf, []byte(article.ID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", article.Title, 6)
	g.writeElement(buf, "link", article.Link, 6)

	g.writeElement(buf, "description", article.Summary, 6)

	if article.Body != nil && *article.Body != article.Summary {
		g.writeElement(buf, "content:encoded", *article.Body, 6)
	}

	if article.PubDate != nil {
		g.writeElement(buf, "pubDate", article.PubDate.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", article.Category, 6)

	if article.Source.Name != "" {
		buf.WriteString("      <source url=\"")
		buf.WriteString(html.EscapeString(article.Source.Homepage))
		buf.WriteString("\">")
		xml.EscapeText(buf, []byte(article.Source.Name))
		buf.WriteString("</source>\n")
	}

	// RSS 2.0 requires url, length and type; the length is unknown here.
	if article.Image != nil {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"image/jpeg\" />\n",
			html.EscapeString(*article.Image)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
