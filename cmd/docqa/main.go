package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"askdocs/internal/bootstrap"
	"askdocs/internal/config"
	"askdocs/internal/pkg/pdfextract"
	"askdocs/internal/rag"
	"askdocs/internal/tui"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: docqa [flags] FILE...\n\nIndexes text and PDF files, then opens an interactive question prompt.\n\n")
		flag.PrintDefaults()
	}
	topK := flag.Int("k", 0, "segments retrieved per question (0 uses retrieval.top_k)")
	flag.Parse()
	_ = godotenv.Load()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}
	models, err := bootstrap.NewModels(cfg)
	if err != nil {
		log.Fatalf("create model clients failed: %v", err)
	}

	ctx := context.Background()
	chunker, err := rag.NewChunker(cfg.ServerChunking())
	if err != nil {
		log.Fatalf("invalid chunking config: %v", err)
	}

	// all files share one index; Offset stays relative to its own file
	var segments []rag.Segment
	for _, path := range flag.Args() {
		text, err := readDocument(path)
		if err != nil {
			log.Fatalf("read %s failed: %v", path, err)
		}
		parts, err := chunker.Split(text)
		if err != nil {
			log.Fatalf("chunk %s failed: %v", path, err)
		}
		for _, p := range parts {
			p.Metadata = map[string]string{"file": filepath.Base(path)}
			segments = append(segments, p)
		}
	}

	fmt.Printf("Embedding %d segments from %d files...\n", len(segments), flag.NArg())
	index := rag.NewIndex(models.Embedder, nil)
	if err := index.Build(ctx, segments); err != nil {
		log.Fatalf("build index failed: %v", err)
	}

	k := *topK
	if k <= 0 {
		k = cfg.Retrieval.TopK
	}
	pipeline := rag.NewPipeline(index, rag.NewSynthesizer(models.Generator), k)
	summary := fmt.Sprintf("%d files, %d segments, top-k %d", flag.NArg(), index.Len(), k)

	program := tea.NewProgram(tui.New(pipeline, summary, k, cfg.LLMTimeout()), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui failed: %v", err)
	}
}

func readDocument(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdfextract.ExtractText(f)
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
