package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/noborus/ov/oviewer"

	"hackhub/internal/domain"
)

// readerCommand shows a document in the ov pager. It satisfies
// tea.ExecCommand so the program releases the terminal while it runs.
type readerCommand struct {
	body   string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	run    func(body string) error
}

func newReaderCommand(body string) *readerCommand {
	return &readerCommand{body: body, run: runPager}
}

func (c *readerCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *readerCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *readerCommand) SetStderr(w io.Writer) { c.stderr = w }

func (c *readerCommand) Run() error {
	return c.run(c.body)
}

func runPager(body string) error {
	root, err := oviewer.NewRoot(strings.NewReader(body))
	if err != nil {
		return err
	}

	// ov must not print the document back onto our screen on exit
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	config.Keybind = map[string][]string{
		"exit": {"Escape", "q"},
		"down": {"Enter", "Down", "ctrl+N", "j"},
		"up":   {"Up", "ctrl+P", "k"},
	}
	root.SetConfig(config)

	return root.Run()
}

// articleDocument formats an article for reading
func articleDocument(a *domain.Article) string {
	var b strings.Builder
	b.WriteString(a.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", max(len([]rune(a.Title)), 3)))
	b.WriteString("\n\n")

	var meta []string
	if a.Author != "" {
		meta = append(meta, "by "+a.Author)
	}
	if !a.PublishedAt.IsZero() {
		meta = append(meta, a.PublishedAt.Format("2 Jan 2006"))
	}
	if !a.Category.IsAll() {
		meta = append(meta, string(a.Category))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n\n")
	}

	body := a.Content
	if body == "" {
		body = a.Excerpt
	}
	b.WriteString(body)
	b.WriteString("\n")
	if len(a.Tags) > 0 {
		b.WriteString("\n#" + strings.Join(a.Tags, " #") + "\n")
	}
	return b.String()
}

// eventDocument formats an event for reading
func eventDocument(e *domain.Event) string {
	var b strings.Builder
	b.WriteString(e.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", max(len([]rune(e.Title)), 3)))
	b.WriteString("\n\n")

	if !e.StartsAt.IsZero() {
		fmt.Fprintf(&b, "When:     %s\n", e.StartsAt.Format("Mon 2 Jan 2006 15:04"))
	}
	if e.Location != "" {
		fmt.Fprintf(&b, "Where:    %s\n", e.Location)
	}
	if !e.Mode.IsAll() {
		fmt.Fprintf(&b, "Mode:     %s\n", e.Mode)
	}
	if !e.Status.IsAll() {
		fmt.Fprintf(&b, "Status:   %s\n", e.Status)
	}
	b.WriteString("\n")
	b.WriteString(e.Description)
	b.WriteString("\n")
	if len(e.Tags) > 0 {
		b.WriteString("\n#" + strings.Join(e.Tags, " #") + "\n")
	}
	return b.String()
}

// resultDocument formats a search hit whose full record is not loaded
func resultDocument(r domain.ResultItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n%s\n", r.Title, r.Type, r.Description)
	if len(r.Tags) > 0 {
		b.WriteString("\n#" + strings.Join(r.Tags, " #") + "\n")
	}
	return b.String()
}
