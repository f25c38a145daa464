package render

import (
	"os"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/net/html"
)

// Layout constants, A4 portrait in millimetres.
const (
	pageMargin   = 15.0
	bodyFontSize = 11.0
	lineHeight   = 5.5
	listIndent   = 6.0
)

var headingSizes = map[string]float64{
	"h1": 24, "h2": 20, "h3": 16, "h4": 14, "h5": 12, "h6": 11,
}

// layoutHTML parses composed HTML and lays it out into a paginated A4
// document. The engine understands the block-level subset template bodies
// use: headings, paragraphs, lists, preformatted text, rules, images and
// explicit page breaks. Unknown elements are transparent containers.
func layoutHTML(src string) (*gofpdf.Fpdf, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", bodyFontSize)

	w := &htmlWalker{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	w.walk(doc)
	w.flushParagraph()

	if pdf.Err() {
		return nil, pdf.Error()
	}
	return pdf, nil
}

// htmlWalker accumulates inline text into a paragraph buffer and emits it as
// a block whenever a block-level boundary is crossed.
type htmlWalker struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	buf strings.Builder
}

func (w *htmlWalker) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.buf.WriteString(collapseSpace(n.Data))
		return
	case html.ElementNode:
		if pageBreakBefore(n) {
			w.flushParagraph()
			w.pdf.AddPage()
		}
		switch n.Data {
		case "head", "script", "style", "title", "template":
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			w.flushParagraph()
			w.writeBlock(textContent(n), "Helvetica", "B", headingSizes[n.Data])
			w.pdf.Ln(2)
			return
		case "p":
			w.flushParagraph()
			w.walkChildren(n)
			w.flushParagraph()
			w.pdf.Ln(2)
			return
		case "br":
			w.buf.WriteString("\n")
			return
		case "hr":
			w.flushParagraph()
			w.drawRule()
			return
		case "img":
			w.flushParagraph()
			w.drawImage(attrValue(n, "src"))
			return
		case "ul":
			w.flushParagraph()
			w.renderList(n, false)
			return
		case "ol":
			w.flushParagraph()
			w.renderList(n, true)
			return
		case "pre", "code":
			w.flushParagraph()
			w.writeBlock(rawText(n), "Courier", "", bodyFontSize-2)
			w.pdf.Ln(2)
			return
		case "div", "section", "article", "main", "header", "footer",
			"table", "tr", "blockquote", "figure":
			w.flushParagraph()
			w.walkChildren(n)
			w.flushParagraph()
			return
		}
	}
	w.walkChildren(n)
}

func (w *htmlWalker) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// flushParagraph emits the buffered inline text as a body paragraph.
func (w *htmlWalker) flushParagraph() {
	text := strings.TrimSpace(w.buf.String())
	w.buf.Reset()
	if text == "" {
		return
	}
	w.pdf.SetFont("Helvetica", "", bodyFontSize)
	w.pdf.MultiCell(0, lineHeight, w.tr(text), "", "L", false)
}

func (w *htmlWalker) writeBlock(text, family, style string, size float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	w.pdf.SetFont(family, style, size)
	w.pdf.MultiCell(0, size*0.5, w.tr(text), "", "L", false)
	w.pdf.SetFont("Helvetica", "", bodyFontSize)
}

func (w *htmlWalker) renderList(n *html.Node, ordered bool) {
	index := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		index++
		marker := "- "
		if ordered {
			marker = intMarker(index)
		}
		item := strings.TrimSpace(textContent(c))
		if item == "" {
			continue
		}
		w.pdf.SetFont("Helvetica", "", bodyFontSize)
		lm, _, _, _ := w.pdf.GetMargins()
		w.pdf.SetLeftMargin(lm + listIndent)
		w.pdf.SetX(lm + listIndent)
		w.pdf.MultiCell(0, lineHeight, w.tr(marker+item), "", "L", false)
		w.pdf.SetLeftMargin(lm)
	}
	w.pdf.Ln(2)
}

func (w *htmlWalker) drawRule() {
	lm, _, rm, _ := w.pdf.GetMargins()
	pageW, _ := w.pdf.GetPageSize()
	y := w.pdf.GetY() + 2
	w.pdf.Line(lm, y, pageW-rm, y)
	w.pdf.SetY(y + 2)
}

// drawImage places an image at the current position, capped to the content
// width. Missing or unreadable files are skipped; a broken asset reference
// should degrade the document, not fail the whole composition.
func (w *htmlWalker) drawImage(src string) {
	path := strings.TrimPrefix(src, "file://")
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	opts := gofpdf.ImageOptions{ReadDpi: true}
	info := w.pdf.RegisterImageOptions(path, opts)
	if w.pdf.Err() {
		w.pdf.ClearError()
		return
	}

	lm, _, rm, _ := w.pdf.GetMargins()
	pageW, _ := w.pdf.GetPageSize()
	contentW := pageW - lm - rm

	imgW := info.Width()
	imgH := info.Height()
	if imgW > contentW {
		imgH = imgH * contentW / imgW
		imgW = contentW
	}

	w.pdf.ImageOptions(path, lm, 0, imgW, imgH, true, opts, 0, "")
	w.pdf.Ln(2)
}

// pageBreakBefore honours the print-CSS idiom for forcing a new page,
// either class="page-break" or an inline page-break-before style.
func pageBreakBefore(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "class":
			for _, c := range strings.Fields(a.Val) {
				if c == "page-break" {
					return true
				}
			}
		case "style":
			if strings.Contains(a.Val, "page-break-before") {
				return true
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent flattens the subtree's text with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(collapseSpace(node.Data))
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

// rawText flattens the subtree's text preserving line structure, for
// preformatted blocks.
func rawText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Trim(b.String(), "\n")
}

// collapseSpace folds runs of whitespace into single spaces, keeping source
// formatting out of the layout.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func intMarker(i int) string {
	return strconv.Itoa(i) + ". "
}
