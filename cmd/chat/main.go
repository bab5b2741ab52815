package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spectra-chat/pkg/chatclient"

	"github.com/fatih/color"
)

func main() {
	backendURL := flag.String("backend", envOr("BACKEND_URL", "http://localhost:8000"), "chat backend base URL")
	email := flag.String("email", "", "sign in as this email")
	name := flag.String("name", "", "display name for first sign-in")
	dataDir := flag.String("data-dir", defaultDataDir(), "directory for local client state")
	flag.Parse()

	store, err := chatclient.NewFileStore(*dataDir)
	if err != nil {
		color.Red("Failed to open local state: %v", err)
		os.Exit(1)
	}

	principal := resolvePrincipal(store, *email, *name)
	if principal == nil {
		color.Red("No identity. Pass -email or sign in once.")
		os.Exit(1)
	}

	backend := chatclient.NewHTTPBackend(*backendURL)
	view := chatclient.NewView(backend, store)

	ctx := context.Background()
	if err := view.Initialize(ctx, principal); err != nil {
		color.Red("Initialization failed: %v", err)
		color.Red("Please retry.")
		os.Exit(1)
	}
	if view.Warning != nil {
		color.Yellow("Warning: could not load history: %v", view.Warning)
	}

	session := view.Session()
	color.Cyan("Signed in as %s", principal.Email)
	color.Cyan("Session: %s (%s)", session.Title, session.Id)

	for _, msg := range view.Messages() {
		printMessage(msg)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}

		answer, err := view.Send(ctx, input)
		if err != nil {
			color.Red("Send failed: %v", err)
			continue
		}

		color.Green("%s", answer.FinalAnswer)
		for i, src := range answer.Sources {
			title := "(untitled)"
			if src.Title != nil {
				title = *src.Title
			}
			url := ""
			if src.URL != nil {
				url = *src.URL
			}
			color.Yellow("  [%d] %s %s", i+1, title, url)
		}
	}
}

func resolvePrincipal(store chatclient.ProfileStore, email, name string) *chatclient.Principal {
	if email != "" {
		p := &chatclient.Principal{Email: email, Name: name}
		return p
	}
	if cached, ok := store.ReadProfile(); ok {
		return cached
	}
	return nil
}

func printMessage(msg chatclient.Message) {
	switch msg.Role {
	case chatclient.RoleUser:
		fmt.Printf("> %s\n", msg.Content)
	case chatclient.RoleAssistant:
		color.Green("%s", msg.Content)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spectra-chat"
	}
	return filepath.Join(home, ".spectra-chat")
}
