package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"conduit/internal/model"
	"conduit/internal/view"

	"github.com/charmbracelet/glamour"
)

const (
	wrapWidth   = 80
	cellWidth   = 60
	timeLayout  = "2006-01-02 15:04"
	emptyMarker = "-"
)

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= cellWidth {
		return s
	}
	return string(r[:cellWidth-1]) + "…"
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return emptyMarker
	}
	return t.Local().Format(timeLayout)
}

// HomePage prints one page of the listing and the popular tags.
func (p *Printer) HomePage(page model.Page, tags []string) error {
	if len(page.Articles) == 0 {
		p.Info("No articles are here... yet.")
	} else {
		t := NewTable(p.out, "ID", "Title", "Description", "Tags", "Created")
		for _, a := range page.Articles {
			t.AddRow(a.ID.String(), clip(a.Title), clip(a.Description), strings.Join(a.TagList, ", "), stamp(a.CreatedAt))
		}
		if err := t.Render(); err != nil {
			return err
		}
		if page.TotalPages > 1 {
			fmt.Fprintln(p.out, p.Dim(fmt.Sprintf("page %d of %d", page.Number, page.TotalPages)))
		}
	}

	p.Header("Popular Tags")
	if len(tags) == 0 {
		p.Info("No tags are here... yet.")
		return nil
	}
	fmt.Fprintln(p.out, strings.Join(tags, "  "))
	return nil
}

// Article prints an article followed by its comment section. The body is
// rendered as markdown unless raw is set.
func (p *Printer) Article(a *model.Article, comments view.CommentSection, raw bool) error {
	if raw {
		fmt.Fprintf(p.out, "%s\n\n%s\n\n%s\n", a.Title, a.Description, a.Body)
	} else {
		rendered, err := p.markdown(articleMarkdown(a))
		if err != nil {
			return err
		}
		fmt.Fprint(p.out, rendered)
	}
	fmt.Fprintln(p.out, p.Dim(fmt.Sprintf("id %s, created %s, updated %s", a.ID, stamp(a.CreatedAt), stamp(a.UpdatedAt))))

	p.Header(comments.Heading)
	for _, c := range comments.Entries {
		fmt.Fprintf(p.out, "#%d %s %s\n", c.ID, c.AuthorName, p.Dim(stamp(c.CreatedAt)))
		fmt.Fprintf(p.out, "  %s\n", strings.ReplaceAll(c.Content, "\n", "\n  "))
	}
	return nil
}

func articleMarkdown(a *model.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Title)
	if a.Description != "" {
		fmt.Fprintf(&b, "> %s\n\n", a.Description)
	}
	b.WriteString(strings.Join(a.Paragraphs(), "\n\n"))
	b.WriteString("\n")
	return b.String()
}

func (p *Printer) markdown(md string) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if p.useColors {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrapWidth))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func CommentTable(w io.Writer, comments []model.Comment) error {
	t := NewTable(w, "ID", "Author", "Comment", "Created")
	for _, c := range comments {
		t.AddRow(strconv.FormatInt(c.ID, 10), c.AuthorName, clip(c.Content), stamp(c.CreatedAt))
	}
	return t.Render()
}

func ImportTable(w io.Writer, jobs []model.ImportJob) error {
	t := NewTable(w, "ID", "Status", "URL", "Article", "Error")
	for _, j := range jobs {
		article := emptyMarker
		if j.ArticleID != "" {
			article = j.ArticleID.String()
		}
		t.AddRow(j.ID.String(), string(j.Status), clip(j.URL), article, clip(j.ErrorMessage))
	}
	return t.Render()
}
