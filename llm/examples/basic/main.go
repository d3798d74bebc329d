package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/lgc202/chatkit/llm"
	"github.com/lgc202/chatkit/llm/providers/deepseek"
	"github.com/lgc202/chatkit/session"
)

func main() {
	provider, err := deepseek.New(os.Getenv("DEEPSEEK_API_KEY"))
	if err != nil {
		log.Fatal(err)
	}

	client := session.NewClient(provider, session.WithModel("deepseek-chat"))
	sess := client.StartSession("You are a concise assistant.")

	ctx := context.Background()
	answer, err := sess.Ask(ctx, "What is the capital of France?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(answer)

	// The follow-up sees the whole history.
	answer, err = sess.Ask(ctx, "And its population?", llm.WithMaxTokens(200))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(answer)
}
