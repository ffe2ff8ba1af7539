package rag

import (
	"fmt"
	"strings"
)

// DefaultBoundaryFraction is the tail share of a candidate chunk searched for a
// natural boundary before falling back to the raw length limit.
const DefaultBoundaryFraction = 0.3

// ChunkerConfig sizes are measured in runes.
type ChunkerConfig struct {
	MaxLength        int
	Overlap          int
	BoundaryFraction float64
}

// Boundary markers in priority order. A cut is placed right after the marker.
var boundaryClasses = [][][]rune{
	{[]rune("\n\n")},
	{[]rune(". "), []rune("! "), []rune("? "), []rune(".\n"), []rune("!\n"), []rune("?\n"), []rune("。"), []rune("！"), []rune("？")},
	{[]rune("\n")},
	{[]rune(" "), []rune("\t")},
}

type Chunker struct {
	cfg ChunkerConfig
}

func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if cfg.MaxLength <= 0 {
		return nil, fmt.Errorf("max length must be positive: %w", ErrInvalidInput)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxLength {
		return nil, fmt.Errorf("overlap must be in [0, %d): %w", cfg.MaxLength, ErrInvalidInput)
	}
	if cfg.BoundaryFraction <= 0 || cfg.BoundaryFraction > 1 {
		cfg.BoundaryFraction = DefaultBoundaryFraction
	}
	return &Chunker{cfg: cfg}, nil
}

// Split cuts text into ordered segments. Consecutive segments share exactly
// Overlap runes; only the last one may be shorter than MaxLength. Windows that
// hold only whitespace are skipped.
func (c *Chunker) Split(text string) ([]Segment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty: %w", ErrInvalidInput)
	}

	runes := []rune(text)
	size, overlap := c.cfg.MaxLength, c.cfg.Overlap
	if len(runes) <= size {
		return []Segment{{Ordinal: 0, Text: text, Offset: 0}}, nil
	}

	var segments []Segment
	emit := func(from, to int) {
		text := string(runes[from:to])
		// blank windows inside long whitespace runs carry nothing to embed
		if strings.TrimSpace(text) == "" {
			return
		}
		segments = append(segments, Segment{Ordinal: len(segments), Text: text, Offset: from})
	}
	start := 0
	for {
		end := start + size
		if end >= len(runes) {
			emit(start, len(runes))
			break
		}
		cut := c.boundary(runes, start, end)
		emit(start, cut)
		start = cut - overlap
	}
	return segments, nil
}

// Chunk is a convenience wrapper around NewChunker and Split.
func Chunk(text string, cfg ChunkerConfig) ([]Segment, error) {
	c, err := NewChunker(cfg)
	if err != nil {
		return nil, err
	}
	return c.Split(text)
}

// boundary returns the cut position for the chunk runes[start:end]. The cut
// always lies beyond start+overlap so the next chunk makes progress.
func (c *Chunker) boundary(runes []rune, start, end int) int {
	window := int(float64(c.cfg.MaxLength) * c.cfg.BoundaryFraction)
	lo := end - window
	if floor := start + c.cfg.Overlap + 1; lo < floor {
		lo = floor
	}
	for _, markers := range boundaryClasses {
		for p := end; p >= lo; p-- {
			for _, m := range markers {
				if endsWith(runes, start, p, m) {
					return p
				}
			}
		}
	}
	return end
}

func endsWith(runes []rune, start, p int, marker []rune) bool {
	from := p - len(marker)
	if from < start {
		return false
	}
	for i, r := range marker {
		if runes[from+i] != r {
			return false
		}
	}
	return true
}
