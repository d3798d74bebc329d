package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lgc202/chatkit/llm/providers/deepseek"
	"github.com/lgc202/chatkit/session"
)

func main() {
	provider, err := deepseek.New(os.Getenv("DEEPSEEK_API_KEY"))
	if err != nil {
		log.Fatal(err)
	}

	client := session.NewClient(provider, session.WithModel("deepseek-chat"))
	sess := client.StartSession("")

	stream, err := sess.StreamAsk(context.Background(), "Write a haiku about the sea.")
	if err != nil {
		log.Fatal(err)
	}
	defer stream.Close()

	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(fragment)
	}
	fmt.Println()

	if usage := stream.Usage(); usage != nil {
		fmt.Printf("tokens: %d prompt, %d completion\n", usage.PromptTokens, usage.CompletionTokens)
	}
}
