package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffyaml"

	"github.com/zombor/billsmart/internal/billservice"
	"github.com/zombor/billsmart/internal/scanning"
	"github.com/zombor/billsmart/internal/storage"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("billsmart-service")
	var (
		port        = fs.IntLong("port", 8000, "HTTP server port")
		dbPath      = fs.StringLong("db", "billsmart.db", "Database file path")
		storagePath = fs.StringLong("storage", "./bills", "Directory generated bills are stored in")
		scannerType = fs.StringEnumLong("scanner", "Scanner type: 'gemini' or 'ollama'", "gemini", "ollama")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, qwen2-vl)")
		catalogPath = fs.StringLong("catalog", "", "YAML price list (product name: price); defaults to the built-in list")
		shopName    = fs.StringLong("shop-name", billservice.DefaultShop.Name, "Shop name printed on bills")
		shopAddress = fs.StringLong("shop-address", billservice.DefaultShop.Address, "Address line printed on bills")
		demoItems   = fs.BoolLong("demo-items", "Answer with demo items when nothing is detected")
		_           = fs.StringLong("config", "", "YAML config file")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILLSMART_SERVICE"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parse),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Load the price list
	catalog := billservice.DefaultCatalog()
	if *catalogPath != "" {
		var err error
		catalog, err = billservice.LoadCatalog(*catalogPath)
		if err != nil {
			slog.Error("Failed to load catalog", "path", *catalogPath, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Catalog loaded", "products", len(catalog.Names()))

	// Initialize database
	slog.Info("Initializing database...")
	db, err := billservice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel, catalog.Names())
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel, catalog.Names())
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	}
	defer scanner.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := storage.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := billservice.NewService(db, scanner, store, billservice.Options{
		Shop:      billservice.Shop{Name: *shopName, Address: *shopAddress},
		Catalog:   catalog,
		DemoItems: *demoItems,
	})
	server := billservice.NewServer(service)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
