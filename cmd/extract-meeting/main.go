// extract-meeting runs meeting extraction over a transcript and prints the
// commitment and the calendar event it would book.
//
// Usage: extract-meeting [-raw] [transcript-file]
//
// The transcript is read from stdin when no file is given. With -raw the
// input is treated as a model reply and only parsed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/usecase"
	"github.com/DevRickLin/matchmate/internal/conf"
	"github.com/DevRickLin/matchmate/internal/data"
)

func main() {
	raw := flag.Bool("raw", false, "parse the input as a model reply instead of calling the model")
	matchID := flag.String("match", "preview", "match id used in the event description")
	flag.Parse()

	_ = godotenv.Load()

	input, err := readInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var commitment domain.MeetingCommitment
	if *raw {
		commitment, err = usecase.ParseMeeting(input)
	} else {
		commitment, err = extract(input)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !commitment.HasDate() {
		fmt.Println("No meeting agreed.")
		return
	}

	event := domain.NewCalendarEvent(commitment, *matchID)
	fmt.Printf("Date:     %s\n", commitment.Date)
	fmt.Printf("Time:     %s\n", commitment.Time)
	fmt.Printf("Location: %s\n", commitment.Location)
	fmt.Println()
	fmt.Printf("Event:    %s\n", event.Title)
	fmt.Printf("Start:    %s\n", event.Start.Format(time.RFC3339))
	fmt.Printf("End:      %s\n", event.End.Format(time.RFC3339))
	fmt.Printf("Details:  %s\n", event.Description)
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		content, err := io.ReadAll(os.Stdin)
		return string(content), err
	}
	content, err := os.ReadFile(path)
	return string(content), err
}

func extract(transcript string) (domain.MeetingCommitment, error) {
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		return domain.MeetingCommitment{}, err
	}

	ctx := context.Background()
	creds, err := data.NewCredentialsRepo(cfg.Store.SettingsPath).Load(ctx)
	if err != nil {
		return domain.MeetingCommitment{}, err
	}

	gen := data.NewGenerationRepo(data.GenerationConfig{
		BaseURL: cfg.Generation.BaseURL,
		Path:    cfg.Generation.Path,
		Model:   cfg.Generation.Model,
	})
	dateUC := usecase.NewDateCheckUsecase(gen, nil, nil, cfg.ToPromptConfig())
	return dateUC.Extract(ctx, creds, transcript)
}
