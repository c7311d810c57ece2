package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/handfreelabs/handfree/internal/assets"
	"github.com/handfreelabs/handfree/internal/config"
	"github.com/handfreelabs/handfree/internal/history"
	"github.com/handfreelabs/handfree/internal/integration"
	"github.com/handfreelabs/handfree/internal/output"
)

var version = "0.1.0-dev"

const usage = `usage: handfreectl <command> [flags]

Commands:
  history   Show recent transcriptions
  watch     Stream state and transcript events from the bus
  probe     Report display server and injection tool availability
  models    Manage local whisper models (list, pull, rm)
  version   Print version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "history":
		err = runHistory(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "probe":
		err = runProbe()
	case "models":
		err = runModels(os.Args[2:])
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "handfree.yaml", "Path to configuration file")
	limit := fs.Int("n", 20, "Number of entries to show")
	fs.Parse(args)

	cfg, err := config.LoadLenient(*configPath)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled in the configuration")
	}

	ctx := context.Background()
	store, err := history.Open(ctx, cfg.History, cliLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tDURATION\tBACKEND\tTEXT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%dms\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.DurationMS, e.Backend, truncate(e.Text, 80))
	}
	return w.Flush()
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "handfree.yaml", "Path to configuration file")
	fs.Parse(args)

	cfg, err := config.LoadLenient(*configPath)
	if err != nil {
		return err
	}
	busCfg := cfg.Integration
	if len(busCfg.Servers) == 0 {
		busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
	}

	client, err := integration.Connect(busCfg, cliLogger())
	if err != nil {
		return fmt.Errorf("connect to bus (is handfreed running with integration enabled?): %w", err)
	}
	defer client.Close()

	if _, err := client.Subscribe(integration.SubjectState, func(data []byte) {
		fmt.Printf("state      %s\n", data)
	}); err != nil {
		return err
	}
	if _, err := client.Subscribe(integration.SubjectTranscript, func(data []byte) {
		fmt.Printf("transcript %s\n", data)
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	fmt.Fprintln(os.Stderr, "watching, ctrl-c to stop")
	<-ctx.Done()
	return nil
}

func runProbe() error {
	tools := output.DetectTools()
	display := string(tools.Display)
	if display == "" {
		display = "unknown"
	}
	fmt.Printf("display server: %s\n", display)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tPRESENT")
	for _, st := range tools.List() {
		fmt.Fprintf(w, "%s\t%v\n", st.Name, st.Present)
	}
	return w.Flush()
}

func runModels(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: handfreectl models <list|pull|rm> [model]")
	}
	verb := args[0]
	fs := flag.NewFlagSet("models "+verb, flag.ExitOnError)
	configPath := fs.String("config", "handfree.yaml", "Path to configuration file")
	fs.Parse(args[1:])

	cfg, err := config.LoadLenient(*configPath)
	if err != nil {
		return err
	}
	manager := assets.NewManager(cfg.Transcribe.Local.ModelsDir, cliLogger())

	switch verb {
	case "list":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tSIZE\tDOWNLOADED")
		for _, st := range manager.Status() {
			fmt.Fprintf(w, "%s\t%s\t%v\n", st.Name, formatSize(st.Size), st.Downloaded)
		}
		return w.Flush()
	case "pull":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: handfreectl models pull <model>")
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		path, err := manager.Download(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "rm":
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: handfreectl models rm <model>")
		}
		return manager.Delete(fs.Arg(0))
	default:
		return fmt.Errorf("unknown models command %q", verb)
	}
}

func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func formatSize(bytes int64) string {
	const (
		mib = 1 << 20
		gib = 1 << 30
	)
	if bytes >= gib {
		return fmt.Sprintf("%.1fGiB", float64(bytes)/gib)
	}
	return fmt.Sprintf("%dMiB", bytes/mib)
}
