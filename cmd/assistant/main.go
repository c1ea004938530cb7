package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/chinpeerapat/assistant-builder/internal/client"
	"github.com/chinpeerapat/assistant-builder/internal/tui"
)

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("server", "http://localhost:8080", "Assistant server URL")
	chatbotID := flag.String("chatbot", "", "Chatbot id to talk to")
	timeout := flag.Int("timeout", 90, "Request timeout in seconds")
	flag.Parse()

	if *chatbotID == "" {
		fmt.Println("Usage: assistant --chatbot=<id> [--server=http://localhost:8080]")
		os.Exit(1)
	}

	api := client.New(client.Config{
		BaseURL: *serverURL,
		Token:   os.Getenv("ASSISTANT_API_TOKEN"),
		Timeout: time.Duration(*timeout) * time.Second,
	})

	m := tui.New(api, *chatbotID)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
