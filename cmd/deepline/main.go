// Command deepline analyzes a chess position and prints a ranked set of
// candidate lines, re-printing the ranking as plan results arrive.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/marchett/deepline/internal/analysis"
	"github.com/marchett/deepline/internal/position"
	"github.com/marchett/deepline/internal/storage"
)

var (
	fenFlag     = flag.String("fen", position.StartingFEN, "position to analyze, as FEN")
	depthFlag   = flag.Int("depth", 0, "maximum search depth (0 = saved preference)")
	plansFlag   = flag.Int("plans", 0, "maximum number of subtree plans (0 = saved preference)")
	workersFlag = flag.Int("workers", 0, "worker pool size (0 = saved preference)")
	saveFlag    = flag.Bool("save", false, "persist the final ranking as a session")
	listFlag    = flag.Bool("list", false, "list saved sessions and exit")
	quietFlag   = flag.Bool("quiet", false, "print only the final ranking")
)

func main() {
	flag.Parse()

	store, err := storage.Open()
	if err != nil {
		log.Printf("storage unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	if *listFlag {
		if store == nil {
			log.Fatal("no storage to list sessions from")
		}
		fens, err := store.ListSessions()
		if err != nil {
			log.Fatalf("list sessions: %v", err)
		}
		for _, fen := range fens {
			fmt.Println(fen)
		}
		return
	}

	prefs := storage.DefaultPreferences()
	if store != nil {
		if p, err := store.LoadPreferences(); err == nil {
			prefs = p
		}
	}
	workers := pick(*workersFlag, prefs.WorkerCount)
	depth := pick(*depthFlag, prefs.MaxDepth)
	plans := pick(*plansFlag, prefs.MaxPlans)

	if _, err := position.New(*fenFlag); err != nil {
		log.Fatalf("invalid position: %v", err)
	}

	var finalLines []analysis.Line
	var finalStats analysis.Stats

	coord := analysis.NewCoordinator(analysis.Config{
		WorkerCount: workers,
		MaxPlans:    plans,
		MaxDepth:    depth,
		OnUpdate: func(lines []analysis.Line, stats analysis.Stats) {
			if stats.Final {
				finalLines = lines
				finalStats = stats
			}
			if *quietFlag && !stats.Final {
				return
			}
			printUpdate(lines, stats)
		},
	})

	log.Printf("analyzing %s (depth %d, %d plans, %d workers)", *fenFlag, depth, plans, workers)
	if err := coord.Start(*fenFlag); err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if *saveFlag && store != nil {
		sess := &storage.Session{FEN: *fenFlag, Lines: finalLines, Stats: finalStats}
		if err := store.SaveSession(sess); err != nil {
			log.Printf("save session: %v", err)
		} else {
			log.Printf("session saved for %s", *fenFlag)
		}
	}
}

func pick(flagValue, pref int) int {
	if flagValue > 0 {
		return flagValue
	}
	return pref
}

func printUpdate(lines []analysis.Line, stats analysis.Stats) {
	tag := ""
	if stats.Final {
		tag = "  final"
	}
	fmt.Printf("-- %d/%d tasks  %d nodes  %d nps  %.1fs%s\n",
		stats.Tasks, stats.Total, stats.Nodes, stats.NPS, stats.Elapsed, tag)
	for i, ln := range lines {
		fmt.Printf("%2d. %-7s %s  [%s] (%d plans, depth %d)\n",
			i+1, analysis.FormatScore(ln.Score), strings.Join(ln.Moves, " "),
			ln.Color, ln.PlanCount, ln.Depth)
	}
}
