package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/cmd/utils/internal/commands"
	"github.com/joho/godotenv"
)

const (
	appName    = "payper-utils"
	appVersion = "0.1.0"
)

type command struct {
	summary string
	run     func(ctx context.Context, config *apt.Config, logger apt.Logger) error
	done    string
}

var registry = map[string]command{
	"seed-demo": {
		summary: "Write the demo restaurant, tables and menu",
		run:     commands.SeedDemo,
		done:    "Demo data written",
	},
	"clear-demo": {
		summary: "Remove demo tables, menu items and their orders",
		run:     commands.ClearDemo,
		done:    "Demo data cleared",
	},
	"reset-db": {
		summary: "Drop the PayPer database and sales journal (USE WITH CAUTION)",
		run:     commands.ResetDB,
		done:    "Databases reset",
	},
	"show-demo": {
		summary: "Print the bundled demo restaurant without touching any database",
		run:     commands.ShowDemo,
	},
}

var commandOrder = []string{"seed-demo", "clear-demo", "reset-db", "show-demo"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cmd, ok := registry[name]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	logger := apt.NewLogger(config.GetStringOrDef("log.level", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, config, logger); err != nil {
		log.Fatalf("%s failed: %v", name, err)
	}
	if cmd.done != "" {
		logger.Info(cmd.done, "command", name)
	}
}

func printUsage() {
	fmt.Printf("%s - PayPer utility commands\n\nUsage:\n  %s <command> [options]\n\nCommands:\n", appName, appName)
	for _, name := range commandOrder {
		fmt.Printf("  %-12s %s\n", name, registry[name].summary)
	}
	fmt.Printf("  %-12s %s\n", "version", "Print version information")
	fmt.Printf("  %-12s %s\n", "help", "Show this help message")
	fmt.Print(`
Environment Variables:
  UTILS_MONGO_URL      MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_MONGO_NAME     Database name (default: payper)
  UTILS_POSTGRES_URL   Sales journal database, reset-db only
  UTILS_LOG_LEVEL      Log level: debug, info, warn, error (default: info)
`)
}
