package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"askdocs/internal/bootstrap"
	"askdocs/internal/captions"
	"askdocs/internal/config"
	"askdocs/internal/rag"
	"askdocs/internal/tutor"
)

var (
	videoURL    = flag.String("video", "", "YouTube video URL")
	language    = flag.String("lang", "", "language you are learning, e.g. Spanish")
	captionCode = flag.String("captions", "", "caption track code; prompts when empty")
)

var (
	boldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	boldYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	faint      = color.New(color.Faint).SprintFunc()
	errColor   = color.New(color.FgRed)
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := run(ctx, bufio.NewScanner(os.Stdin)); err != nil {
		errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in *bufio.Scanner) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	models, err := bootstrap.NewModels(cfg)
	if err != nil {
		return err
	}
	source := captions.NewYouTubeClient(cfg.LLMTimeout())
	svc := tutor.NewService(models.Generator)

	url := prompt(in, *videoURL, "Video URL: ")
	if _, err := captions.ExtractVideoID(url); err != nil {
		return err
	}
	lang := prompt(in, *language, "Language you are learning: ")

	code := *captionCode
	if code == "" {
		code, err = chooseCaptions(ctx, in, source, url)
		if err != nil {
			return err
		}
	}

	fmt.Println(faint("Fetching captions..."))
	raw, err := source.Fetch(ctx, url, code)
	if err != nil {
		return err
	}
	trimmed, words, originalWords := captions.Trim(raw, cfg.Captions.MaxChars)
	if words < originalWords {
		fmt.Println(faint(fmt.Sprintf("Transcript trimmed from %d to %d words.", originalWords, words)))
	}
	transcript, summarised, err := svc.PrepareTranscript(ctx, trimmed)
	if err != nil {
		return err
	}
	if summarised {
		fmt.Println(faint("Long transcript summarised before generating questions."))
	}

	fmt.Println(faint("Preparing questions..."))
	materials, err := svc.Materials(ctx, transcript, lang)
	if err != nil {
		return err
	}
	fmt.Println(boldYellow("\nQuestions"))
	fmt.Println(materials.Questions)
	if materials.Vocabulary != "" {
		fmt.Println(boldYellow("\nVocabulary"))
		fmt.Println(materials.Vocabulary)
	}
	fmt.Println(faint("\nType 'answers' to reveal the answers, 'exit' to finish.\n"))

	chat := svc.NewChat(transcript, lang, nil)
	streamReply := func(message string) error {
		fmt.Print(boldCyan("Tutor: "))
		_, err := chat.SendStream(ctx, message, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		fmt.Println()
		return err
	}
	if err := streamReply(tutor.Greeting(lang)); err != nil {
		return err
	}

	for {
		fmt.Print(boldGreen("You: "))
		if !in.Scan() {
			break
		}
		text := strings.TrimSpace(in.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			return finish(ctx, cfg, svc, chat.Exchanges(), lang, url, materials)
		case "answers":
			fmt.Println(boldYellow("\nAnswers"))
			fmt.Println(materials.Answers)
			fmt.Println()
			continue
		}
		if err := streamReply(text); err != nil {
			errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return finish(ctx, cfg, svc, chat.Exchanges(), lang, url, materials)
}

func finish(ctx context.Context, cfg *config.Config, svc *tutor.Service, exchanges []rag.Exchange, lang, url string, materials *tutor.Materials) error {
	summary, err := svc.SummariseChat(ctx, lang, exchanges)
	if err != nil {
		errColor.Fprintf(os.Stderr, "chat summary failed: %v\n", err)
	}
	path, err := tutor.WriteRecord(cfg.Tutor.SessionsDir, &tutor.Record{
		Language:    lang,
		VideoURL:    url,
		Materials:   *materials,
		ChatSummary: summary,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", boldGreen("Session saved to"), path)
	return nil
}

func chooseCaptions(ctx context.Context, in *bufio.Scanner, source captions.Source, url string) (string, error) {
	langs, err := source.ListLanguages(ctx, url)
	if err != nil {
		return "", err
	}
	if len(langs) == 0 {
		return "", captions.ErrNoCaptions
	}
	fmt.Println(boldYellow("Available captions:"))
	for i, l := range langs {
		fmt.Printf("  %d. %s (%s)\n", i+1, l.Name, l.Code)
	}
	for {
		choice := prompt(in, "", "Choose a track: ")
		n, err := strconv.Atoi(choice)
		if err == nil && n >= 1 && n <= len(langs) {
			return langs[n-1].Code, nil
		}
		fmt.Println(faint("Enter a number from the list."))
	}
}

func prompt(in *bufio.Scanner, value, label string) string {
	for strings.TrimSpace(value) == "" {
		fmt.Print(boldGreen(label))
		if !in.Scan() {
			os.Exit(0)
		}
		value = in.Text()
	}
	return strings.TrimSpace(value)
}
