package main

import (
	"embed"
	"flag"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	flag.Parse()

	app := NewApp()

	if flag.NArg() > 0 {
		filePath := flag.Arg(0)
		// #nosec G304 -- filePath comes from command-line argument, user-controlled by design
		source, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", filePath, err)
		}
		if err := app.AnalyzeSource(string(source), filePath); err != nil {
			log.Fatalf("Failed to analyze program: %v", err)
		}
	}

	err := wails.Run(&options.App{
		Title:  "HLASM Analyzer",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		log.Fatal(err)
	}
}
