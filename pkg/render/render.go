// Package render turns assistant markdown into styled terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/wordwrap"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

const minWidth = 20

// Options configures a Renderer
type Options struct {
	Width     int
	CodeStyle string // chroma style name
	Plain     bool   // skip syntax highlighting escapes
	Styles    *Styles
}

// Renderer renders markdown. Render is a pure function of its input, so
// rendering an accumulated buffer gives the same result however many
// partial renders preceded it.
type Renderer struct {
	width     int
	plain     bool
	md        goldmark.Markdown
	styles    Styles
	codeStyle *chroma.Style
	formatter chroma.Formatter
}

// New creates a renderer
func New(opts Options) *Renderer {
	width := opts.Width
	if width < minWidth {
		width = minWidth
	}

	st := DefaultStyles()
	if opts.Styles != nil {
		st = *opts.Styles
	}

	codeStyle := styles.Get(opts.CodeStyle)
	if codeStyle == nil {
		codeStyle = styles.Fallback
	}

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &Renderer{
		width:     width,
		plain:     opts.Plain,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		styles:    st,
		codeStyle: codeStyle,
		formatter: formatter,
	}
}

// Width is the wrap width
func (r *Renderer) Width() int { return r.width }

// WithWidth returns a renderer sharing r's settings at a new width
func (r *Renderer) WithWidth(width int) *Renderer {
	if width < minWidth {
		width = minWidth
	}
	clone := *r
	clone.width = width
	return &clone
}

// Render formats the full markdown text
func (r *Renderer) Render(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	source := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(source))
	return r.blocks(doc, source, r.width, "\n\n")
}

func (r *Renderer) blocks(parent ast.Node, src []byte, width int, sep string) string {
	var out []string
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := r.block(n, src, width); b != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, sep)
}

func (r *Renderer) block(n ast.Node, src []byte, width int) string {
	switch n := n.(type) {
	case *ast.Heading:
		return r.styles.heading(n.Level).Render(wordwrap.String(r.inline(n, src), width))

	case *ast.Paragraph, *ast.TextBlock:
		return wordwrap.String(r.inline(n, src), width)

	case *ast.FencedCodeBlock:
		return r.code(lines(n, src), string(n.Language(src)))

	case *ast.CodeBlock:
		return r.code(lines(n, src), "")

	case *ast.Blockquote:
		inner := r.blocks(n, src, width-2, "\n\n")
		bar := r.styles.Quote.Render("│")
		rows := strings.Split(inner, "\n")
		for i, row := range rows {
			rows[i] = bar + " " + r.styles.Quote.Render(row)
		}
		return strings.Join(rows, "\n")

	case *ast.List:
		return r.list(n, src, width)

	case *ast.ThematicBreak:
		return r.styles.Rule.Render(strings.Repeat("─", min(width, 40)))

	case *ast.HTMLBlock:
		return strings.TrimRight(lines(n, src), "\n")

	case *east.Table:
		return r.table(n, src)

	default:
		return r.blocks(n, src, width, "\n\n")
	}
}

func (r *Renderer) list(l *ast.List, src []byte, width int) string {
	var items []string
	num := l.Start
	if num == 0 {
		num = 1
	}

	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		pad := strings.Repeat(" ", lipgloss.Width(marker))

		sep := "\n"
		if !l.IsTight {
			sep = "\n\n"
		}
		body := r.blocks(item, src, width-len(pad), sep)

		rows := strings.Split(body, "\n")
		for i := range rows {
			if i == 0 {
				rows[i] = r.styles.Bullet.Render(marker) + rows[i]
			} else if rows[i] != "" {
				rows[i] = pad + rows[i]
			}
		}
		items = append(items, strings.Join(rows, "\n"))
	}
	return strings.Join(items, "\n")
}

func (r *Renderer) table(t *east.Table, src []byte) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.TableEdge)

	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.inline(cell, src))
		}
		if _, ok := row.(*east.TableHeader); ok {
			tbl = tbl.Headers(cells...)
			continue
		}
		tbl = tbl.Row(cells...)
	}
	return tbl.Render()
}

// code highlights a code block with chroma and boxes it
func (r *Renderer) code(body, language string) string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return ""
	}

	highlighted := body
	if !r.plain {
		highlighted = r.highlight(body, language)
	}

	box := r.styles.CodeBlock.Render(highlighted)
	if language == "" {
		return box
	}
	return r.styles.CodeLabel.Render(language) + "\n" + box
}

func (r *Renderer) highlight(body, language string) string {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(body)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, body)
	if err != nil {
		logger.WithComponent("render").Debug("failed to tokenize code, using plain text", "error", err)
		return body
	}

	var buf strings.Builder
	if err := r.formatter.Format(&buf, r.codeStyle, iterator); err != nil {
		logger.WithComponent("render").Debug("failed to format code, using plain text", "error", err)
		return body
	}
	return strings.TrimRight(buf.String(), "\n")
}

// inline renders the inline children of n
func (r *Renderer) inline(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c, src)
	}
	return b.String()
}

func (r *Renderer) writeInline(b *strings.Builder, n ast.Node, src []byte) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}

	case *ast.String:
		b.Write(n.Value)

	case *ast.CodeSpan:
		b.WriteString(r.styles.InlineCode.Render(plainText(n, src)))

	case *ast.Emphasis:
		style := r.styles.Italic
		if n.Level >= 2 {
			style = r.styles.Bold
		}
		b.WriteString(style.Render(r.inline(n, src)))

	case *east.Strikethrough:
		b.WriteString(r.styles.Strike.Render(r.inline(n, src)))

	case *ast.Link:
		label := r.inline(n, src)
		dest := string(n.Destination)
		if label == "" || label == dest {
			b.WriteString(r.styles.Link.Render(dest))
			return
		}
		b.WriteString(label + " (" + r.styles.Link.Render(dest) + ")")

	case *ast.AutoLink:
		b.WriteString(r.styles.Link.Render(string(n.URL(src))))

	case *ast.Image:
		alt := plainText(n, src)
		if alt == "" {
			alt = "image"
		}
		b.WriteString("[" + alt + "] " + r.styles.Link.Render(string(n.Destination)))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(src))
		}

	case *east.TaskCheckBox:
		if n.IsChecked {
			b.WriteString("[x] ")
		} else {
			b.WriteString("[ ] ")
		}

	default:
		b.WriteString(r.inline(n, src))
	}
}

// plainText concatenates the text segments under n without styling
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// lines joins the raw source lines of a block node
func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
