package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffyaml"

	"github.com/zombor/billsmart/internal/announce"
	"github.com/zombor/billsmart/internal/billing"
	"github.com/zombor/billsmart/internal/capture"
	"github.com/zombor/billsmart/internal/device"
	"github.com/zombor/billsmart/internal/ledger"
	"github.com/zombor/billsmart/internal/recognition"
	"github.com/zombor/billsmart/internal/screen"
	"github.com/zombor/billsmart/internal/storage"
	"github.com/zombor/billsmart/internal/workflow"
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

	fs := ff.NewFlagSet("billsmart")
	var (
		addr           = fs.StringLong("addr", "localhost:3000", "Address the billing screen listens on")
		serviceURL     = fs.StringLong("service-url", "http://localhost:8000", "Base URL of the recognition and bill service")
		devices        = fs.StringListLong("device", "Capture device as label=uri; uri is an http(s) snapshot URL, /dev/videoN or an image file (repeatable)")
		sysfs          = fs.BoolLong("sysfs", "Enumerate V4L2 cameras from "+device.DefaultSysfsRoot)
		storagePath    = fs.StringLong("storage", "./bills", "Directory generated bills are saved to")
		negativeValues = fs.StringEnumLong("negative-values", "Handling of negative counts and prices: allow, reject or clamp", "allow", "reject", "clamp")
		speakerKind    = fs.StringLong("speaker", "log", "Total announcements: 'log', 'espeak', 'say' or a program name")
		httpTimeout    = fs.DurationLong("http-timeout", 0, "Timeout for calls to the service (0 waits indefinitely)")
		_              = fs.StringLong("config", "", "YAML config file")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILLSMART"),
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

	policy, err := ledger.ParsePolicy(*negativeValues)
	if err != nil {
		slog.Error("Invalid negative value policy", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the device inventory
	var inventory device.MultiInventory
	if *sysfs {
		inventory = append(inventory, device.NewSysfsInventory(device.DefaultSysfsRoot))
	}
	var static device.StaticInventory
	for _, spec := range *devices {
		d, err := device.ParseSpec(spec)
		if err != nil {
			slog.Error("Invalid device", "device", spec, "error", err)
			os.Exit(1)
		}
		static = append(static, d)
	}
	inventory = append(inventory, static)

	client := &http.Client{Timeout: *httpTimeout}

	// Resolve the capture device once at startup
	var selected *device.Device
	var source capture.Source
	d, err := device.Resolve(ctx, inventory)
	switch {
	case errors.Is(err, device.ErrDeviceUnavailable):
		slog.Warn("No external camera detected; capture is disabled", "error", err)
	case err != nil:
		slog.Error("Failed to resolve capture device", "error", err)
		os.Exit(1)
	default:
		source, err = capture.Open(d, client)
		if err != nil {
			slog.Error("Failed to open capture device", "device", d.ID, "error", err)
			os.Exit(1)
		}
		selected = &d
		slog.Info("Capture device selected", "label", d.Label, "id", d.ID)
	}

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := storage.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	announcer := announce.New(announce.NewSpeaker(*speakerKind))
	go func() {
		if err := announcer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Announcer stopped", "error", err)
		}
	}()

	session := workflow.NewSession(
		selected,
		capture.NewController(source),
		ledger.New(policy, announcer),
		recognition.NewClient(*serviceURL, client),
		billing.NewClient(*serviceURL, client, store),
	)
	server := screen.NewServer(session)

	go func() {
		if err := server.Start(*addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Billing screen started", "address", "http://"+*addr, "service", *serviceURL, "negative_values", policy.String())

	<-ctx.Done()
	slog.Info("Shutting down...")
}
