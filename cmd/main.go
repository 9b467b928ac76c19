// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/dosense/dohub/internal/config"
	"github.com/dosense/dohub/internal/server"
	"github.com/joho/godotenv"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting DO Hub Server v%s", nuts.GetVersion())

	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		nuts.L.Warnf("[Main] Could not read .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"    ____  ____     __  __      __  ",
		"   / __ \\/ __ \\   / / / /_  __/ /_ ",
		"  / / / / / / /  / /_/ / / / / __ \\",
		" / /_/ / /_/ /  / __  / /_/ / /_/ /",
		"/_____/\\____/  /_/ /_/\\__,_/_.___/ ",
		"....................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
