package main

import (
	"ascension-server/internal/infrastructure/storage"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "info":
		if len(os.Args) < 3 {
			fmt.Println("Usage: replayinfo info <file.asrp>...")
			return
		}
		failed := false
		for _, path := range os.Args[2:] {
			if err := info(path); err != nil {
				fmt.Printf("%s: %v\n", path, err)
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
	case "events":
		if len(os.Args) < 3 {
			fmt.Println("Usage: replayinfo events <file.asrp>")
			return
		}
		rf, err := (&storage.ReplayService{}).Load(os.Args[2])
		if err != nil {
			fmt.Printf("Invalid replay: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rf.Events)
	case "format":
		if len(os.Args) < 3 {
			fmt.Println("Usage: replayinfo format <unix_millis>")
			return
		}
		ms, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Printf("Invalid timestamp: %v\n", err)
			return
		}
		fmt.Println(formatStamp(ms, time.Now()))
	default:
		printHelp()
	}
}

func info(path string) error {
	rf, err := (&storage.ReplayService{}).Load(path)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, ev := range rf.Events {
		counts[ev.T]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	slices.Sort(types)

	fmt.Printf("%s\n  seed:   %d\n  saved:  %s\n  events: %d\n", path, rf.Seed, formatStamp(rf.Timestamp, time.Now()), len(rf.Events))
	for _, t := range types {
		fmt.Printf("    %-12s %d\n", t, counts[t])
	}
	return nil
}

// formatStamp - время сохранения в RFC3339 и сколько прошло
func formatStamp(ms int64, now time.Time) string {
	if ms <= 0 {
		return "unknown"
	}
	t := time.UnixMilli(ms).UTC()
	return fmt.Sprintf("%s (%s ago)", t.Format(time.RFC3339), now.Sub(t).Truncate(time.Second))
}

func printHelp() {
	fmt.Println(`Replay Info - просмотр файлов реплеев .asrp
Commands:
  info <file>...      - заголовок, время сохранения и число событий по типам
  events <file>       - лента событий в JSON
  format <millis>     - преобразовать время из заголовка в читаемый формат`)
}
