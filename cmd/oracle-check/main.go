// Command oracle-check lists the Gemini models the configured API key can
// reach. Run it when classification starts failing to tell a revoked key
// apart from a retired model name.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	_ = godotenv.Load()

	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Fatalf("set GEMINI_API_KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		log.Fatalf("genai client: %v", err)
	}

	fmt.Println("Listing models that support content generation...")

	count := 0
	for model, err := range client.Models.All(ctx) {
		if err != nil {
			log.Fatalf("list models: %v", err)
		}
		if !slices.Contains(model.SupportedActions, "generateContent") {
			continue
		}
		fmt.Printf("  %s\n", model.Name)
		count++
	}

	if count == 0 {
		fmt.Println("No compatible models found: the key is likely restricted or invalid.")
		os.Exit(1)
	}
	fmt.Printf("%d compatible model(s). The key works.\n", count)
}
