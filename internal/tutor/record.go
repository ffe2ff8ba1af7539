package tutor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"askdocs/internal/pkg/slug"
)

var ErrRecordExists = errors.New("session record already exists")

// Record is the persisted outcome of one tutor session.
type Record struct {
	Language    string
	VideoURL    string
	Materials   Materials
	ChatSummary string
	CreatedAt   time.Time
}

// FileName is <slug>_<YYYY-MM-DD_HH-MM>.md.
func (r *Record) FileName() string {
	return fmt.Sprintf("%s_%s.md", slug.Letters(r.Language, "session"), r.CreatedAt.Format("2006-01-02_15-04"))
}

func (r *Record) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Learning Session\n", r.Language)
	fmt.Fprintf(&b, "**Date:** %s\n", r.CreatedAt.Format("02 January 2006, 15:04"))
	fmt.Fprintf(&b, "**Video:** %s\n\n---\n\n", r.VideoURL)
	fmt.Fprintf(&b, "## Questions\n%s\n\n---\n\n", r.Materials.Questions)
	fmt.Fprintf(&b, "## Vocabulary\n%s\n\n---\n\n", r.Materials.Vocabulary)
	fmt.Fprintf(&b, "## Answers\n%s\n", r.Materials.Answers)
	if r.ChatSummary != "" {
		fmt.Fprintf(&b, "\n---\n\n## Chat Summary\n%s\n", r.ChatSummary)
	}
	return b.String()
}

const maxRecordSuffix = 99

// WriteRecord creates dir/<FileName> and never overwrites an existing record.
// When that name is taken, _2, _3 and so on are appended before the extension.
func WriteRecord(dir string, r *Record) (string, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create sessions dir failed: %w", err)
	}
	base := strings.TrimSuffix(r.FileName(), ".md")
	for n := 1; n <= maxRecordSuffix; n++ {
		name := base + ".md"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.md", base, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create session record failed: %w", err)
		}
		if _, err := f.WriteString(r.Markdown()); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write session record failed: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close session record failed: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("%s: %w", filepath.Join(dir, base+".md"), ErrRecordExists)
}
