package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lgc202/chatkit/llm"
	"github.com/lgc202/chatkit/llm/providers/deepseek"
	"github.com/lgc202/chatkit/session"
)

func main() {
	provider, err := deepseek.New(os.Getenv("DEEPSEEK_API_KEY"))
	if err != nil {
		log.Fatal(err)
	}

	reg := session.NewToolRegistry()
	reg.Register(llm.ToolDefinition{
		Name:        "get_date",
		Description: "Get today's date in YYYY-MM-DD format.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return time.Now().Format("2006-01-02"), nil
	})
	reg.Register(llm.ToolDefinition{
		Name:        "get_weather",
		Description: "Get the current weather for a city.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
	}, func(ctx context.Context, args json.RawMessage) (string, error) {
		var in struct {
			City string `json:"city"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return "", err
		}
		return fmt.Sprintf("Sunny, 22C in %s", in.City), nil
	})

	client := session.NewClient(provider, session.WithModel("deepseek-chat"))
	sess := client.StartSession("")

	answer, err := sess.AskWithTools(context.Background(), "What day is it today, and how is the weather in Paris?", reg)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(answer)

	for _, msg := range sess.Messages() {
		fmt.Printf("[%s] %.60s\n", msg.Role, msg.Content)
	}
}
