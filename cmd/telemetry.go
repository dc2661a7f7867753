package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/proteo/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "View JSONL telemetry events from scoring runs",
	Long: `Reads and formats the JSONL telemetry file written by rank and compare.

The file defaults to telemetry.path from the config. --run shows a
single run; --last shows the most recent one.
With --follow (-f), watches the file for new events (like tail -f).`,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("file", "", "telemetry file (default: telemetry.path from config)")
	telemetryCmd.Flags().String("run", "", "only show events for this run ID")
	telemetryCmd.Flags().Bool("last", false, "only show the most recent run")
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	runID, _ := cmd.Flags().GetString("run")
	last, _ := cmd.Flags().GetBool("last")
	follow, _ := cmd.Flags().GetBool("follow")

	path, err := resolveTelemetryPath(file)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	events, err := telemetry.ReadEvents(f)
	if err != nil {
		return err
	}
	if last {
		runID = telemetry.LastRunID(events)
	}
	for _, evt := range telemetry.FilterRun(events, runID) {
		printEvent(cmd.OutOrStdout(), evt)
	}

	if !follow {
		return nil
	}
	return tailFollow(cmd.OutOrStdout(), f, path, runID)
}

// tailFollow watches the file for new data using fsnotify and prints new
// events. A non-empty runID hides events of other runs.
func tailFollow(w io.Writer, f *os.File, path, runID string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	reader := bufio.NewReader(f)
	for event := range watcher.Events {
		if event.Op&fsnotify.Write == 0 {
			continue
		}
		// Read all new lines available.
		for {
			line, err := reader.ReadString('\n')
			line = strings.TrimSpace(line)
			if line != "" {
				printLine(w, line, runID)
			}
			if err != nil {
				break
			}
		}
	}
	return nil
}

// printLine decodes a JSONL line and prints it unless it belongs to a
// different run. Undecodable lines are printed raw.
func printLine(w io.Writer, line, runID string) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}
	if runID != "" && evt.RunID != runID {
		return
	}
	printEvent(w, evt)
}

// printEvent prints a human-readable representation of evt.
func printEvent(w io.Writer, evt telemetry.Event) {
	ts := evt.Timestamp.Format(time.TimeOnly)
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", ts))
	parts = append(parts, evt.Kind)

	if evt.RunID != "" {
		parts = append(parts, fmt.Sprintf("run=%s", evt.RunID))
	}
	if evt.Method != "" {
		parts = append(parts, fmt.Sprintf("method=%s", evt.Method))
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := json.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}

	fmt.Fprintln(w, strings.Join(parts, " "))
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}

// resolveTelemetryPath returns file if set, otherwise the configured
// telemetry.path.
func resolveTelemetryPath(file string) (string, error) {
	path := file
	if path == "" {
		path = viper.GetString("telemetry.path")
	}
	if path == "" {
		return "", errors.New("telemetry: no file given and telemetry.path is not configured")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("telemetry: %w", err)
	}
	return path, nil
}
