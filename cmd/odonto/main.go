package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sinditur/odonto/internal/tui"
	"github.com/sinditur/odonto/pkg/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "erro: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real env vars win over file values.
	godotenv.Load() //nolint:errcheck

	apiURL := os.Getenv("ODONTO_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8750"
	}
	wsURL := os.Getenv("ODONTO_WS_URL")
	if wsURL == "" {
		wsURL = deriveWSURL(apiURL)
	}

	dir := os.Getenv("ODONTO_DIR")
	if dir == "" {
		var err error
		dir, err = session.DefaultDir()
		if err != nil {
			return err
		}
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("odonto " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout(dir)
		case "login":
			// Forget the stored session so the TUI opens on the login
			// screen even when old credentials are still on disk.
			store := session.NewStore(dir)
			store.Load()
			if err := store.Logout(); err != nil {
				return err
			}
		default:
			fmt.Fprintf(os.Stderr, "comando desconhecido: %s\n", os.Args[1])
			printHelp()
			return nil
		}
	}

	log := newLogger(dir)
	log.WithFields(logrus.Fields{
		"version": version,
		"api_url": apiURL,
		"ws_url":  wsURL,
	}).Info("starting")

	store := session.NewStore(dir)
	app := tui.NewApp(apiURL, wsURL, store, log)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// deriveWSURL maps the REST base URL onto the push endpoint:
// http(s)://host -> ws(s)://host/socket.io.
func deriveWSURL(apiURL string) string {
	ws := apiURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/socket.io"
}

// newLogger writes to <dir>/debug.log. The TUI owns stdout, so when the log
// file cannot be opened the logger discards instead of polluting the screen.
func newLogger(dir string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.InfoLevel)
	if os.Getenv("ODONTO_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return log
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return log
	}
	log.SetOutput(f)
	return log
}

func runLogout(dir string) error {
	store := session.NewStore(dir)
	if store.Load() != session.StateAuthenticated {
		fmt.Println("Nenhuma sessao ativa.")
		return nil
	}
	if err := store.Logout(); err != nil {
		return err
	}
	fmt.Println("Sessao encerrada.")
	return nil
}
