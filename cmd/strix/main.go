// Command strix runs the gateway as a local chat REPL: it discovers
// providers from the environment, wires the broadcast broker, and streams
// completions to the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/nats-io/nats.go"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"

	"github.com/strixlab/strix/chat"
	"github.com/strixlab/strix/pkg/slogx"
	"github.com/strixlab/strix/provider/models"
	"github.com/strixlab/strix/pubsub"
)

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelInfo}),
	))
}

// consoleHook prints deltas as they arrive and re-renders the final text
// as markdown once the run completes.
type consoleHook struct {
	glam *glamour.TermRenderer
	done chan struct{}
}

func (h *consoleHook) OnDelta(_ context.Context, event pubsub.Delta) {
	fmt.Print(event.Text)
}

func (h *consoleHook) OnFinal(_ context.Context, event pubsub.Final) {
	fmt.Println()
	if out, err := h.glam.Render(event.Text); err == nil {
		fmt.Print(out)
	}
	h.done <- struct{}{}
}

func (h *consoleHook) OnError(_ context.Context, event pubsub.Error) {
	fmt.Printf("%s: %s\n", color.RedString("Error"), event.Message)
	h.done <- struct{}{}
}

func main() {
	ctx := context.Background()

	cfg := models.ConfigFromEnv()
	registry := models.FromConfig(cfg)
	if registry.IsEmpty() {
		log.Fatal().Msg("no LLM providers configured, set ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}
	slog.Info("providers discovered", slog.String("providers", registry.Summary()))

	var broker pubsub.Broker = pubsub.Local()
	if url := os.Getenv("NATS_URL"); url != "" {
		nc, err := nats.Connect(url)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer nc.Close()
		broker = pubsub.NATS(nc)
	}

	svc, err := chat.New(registry, broker)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build chat service")
	}

	glam, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build renderer")
	}

	hook := &consoleHook{glam: glam, done: make(chan struct{}, 1)}
	sub, err := broker.Topic(ctx, "chat").Subscribe(ctx, hook)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to chat topic")
	}
	defer sub.Unsubscribe()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Split(bufio.ScanLines)

	for {
		fmt.Printf("%s: ", color.CyanString("User"))
		if !scanner.Scan() {
			fmt.Println("Exiting...")
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			return
		}

		if _, err := svc.Send(ctx, chat.SendRequest{Text: input}); err != nil {
			slog.Error("send failed", slogx.Error(err))
			continue
		}
		<-hook.done
	}
}
