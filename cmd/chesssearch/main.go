// Command chesssearch searches a position given as FEN and reports the best
// move, or counts leaf nodes with -perft.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/hailam/chesssearch/internal/board"
	"github.com/hailam/chesssearch/internal/diagram"
	"github.com/hailam/chesssearch/internal/engine"
	"github.com/hailam/chesssearch/internal/storage"
)

var (
	fen        = flag.String("fen", board.StartFEN, "position to search")
	depth      = flag.Int("depth", 0, "search depth in plies (0 uses the stored preference)")
	iterative  = flag.Bool("iterative", true, "iterative deepening with aspiration windows")
	hashMB     = flag.Int("hash", 0, "transposition table size in MB (0 uses the stored preference)")
	noNull     = flag.Bool("nonull", false, "disable null-move pruning")
	noLMR      = flag.Bool("nolmr", false, "disable late move reductions")
	noCache    = flag.Bool("nocache", false, "disable the transposition table")
	perft      = flag.Int("perft", 0, "count leaf nodes to this depth instead of searching")
	divide     = flag.Bool("divide", false, "with -perft, print the count below each root move")
	dbDir      = flag.String("db", "", `analysis store directory, "auto" for the platform data directory`)
	fresh      = flag.Bool("fresh", false, "search even if the store holds a deep enough result")
	history    = flag.Bool("history", false, "list stored results and exit")
	savePrefs  = flag.Bool("save-prefs", false, "store -depth, -hash, -nonull, -nolmr and -iterative as defaults")
	svgOut     = flag.String("svg", "", "write an SVG diagram with the best move to this file")
	pngOut     = flag.String("png", "", "write a PNG diagram with the best move to this file")
	pngSize    = flag.Int("size", 480, "PNG diagram size in pixels")
	flip       = flag.Bool("flip", false, "draw diagrams from Black's side")
	verbose    = flag.Bool("v", false, "log every iteration")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("chesssearch: ")

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	if err := run(); err != nil {
		log.Print(err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run() error {
	snap, err := board.ParseFENSnapshot(*fen)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if *history {
		return printHistory(store)
	}

	prefs := storage.DefaultPreferences()
	if store != nil {
		if prefs, err = store.LoadPreferences(); err != nil {
			return err
		}
	}
	applyFlags(prefs)
	if *savePrefs {
		if store == nil {
			return errors.New("-save-prefs needs -db")
		}
		if err := store.SavePreferences(prefs); err != nil {
			return err
		}
	}

	opts := engine.DefaultOptions()
	prefs.Apply(&opts)
	opts.UseCache = !*noCache
	if *verbose {
		opts.Logger = log.New(os.Stderr, "", log.Lmicroseconds)
	}
	eng := engine.NewEngine(opts)

	if *perft > 0 {
		return runPerft(eng, snap)
	}

	res, cached, err := search(eng, store, snap, prefs)
	if err != nil {
		return err
	}
	if err := report(eng, snap, res, cached); err != nil {
		return err
	}
	return writeDiagrams(snap, res.BestMove)
}

// applyFlags overrides stored preferences with the flags given explicitly.
func applyFlags(prefs *storage.Preferences) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "depth":
			prefs.Depth = *depth
		case "hash":
			prefs.HashMB = *hashMB
		case "iterative":
			prefs.Iterative = *iterative
		case "nonull":
			prefs.NullMove = !*noNull
		case "nolmr":
			prefs.LMR = !*noLMR
		}
	})
}

func openStore() (*storage.Storage, error) {
	switch *dbDir {
	case "":
		return nil, nil
	case "auto":
		store, err := storage.NewStorage()
		if err != nil {
			return nil, err
		}
		first, err := store.IsFirstLaunch()
		if err != nil {
			log.Printf("could not read first-launch marker: %v", err)
		}
		if err == nil && first {
			if dir, err := storage.GetDatabaseDir(); err != nil {
				log.Printf("could not resolve analysis store directory: %v", err)
			} else {
				log.Printf("created analysis store in %s", dir)
			}
			if err := store.MarkFirstLaunchComplete(); err != nil {
				log.Printf("could not record first launch: %v", err)
			}
		}
		return store, nil
	default:
		return storage.Open(*dbDir)
	}
}

func search(eng *engine.Engine, store *storage.Storage, snap *board.FENSnapshot, prefs *storage.Preferences) (engine.Result, bool, error) {
	pos, err := board.NewPositionFromSnapshot(snap)
	if err != nil {
		return engine.Result{}, false, err
	}

	if store != nil && !*fresh {
		rec, err := store.LoadResult(pos.Hash)
		switch {
		case err == nil && rec.Depth >= prefs.Depth:
			if res, ok := resultFromRecord(pos, rec); ok {
				return res, true, nil
			}
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return engine.Result{}, false, err
		}
	}

	var res engine.Result
	if prefs.Iterative {
		res, err = eng.SearchIterative(snap, prefs.Depth)
	} else {
		res, err = eng.SearchRoot(snap, prefs.Depth)
	}
	if err != nil {
		return engine.Result{}, false, err
	}

	if store != nil {
		if err := store.SaveResult(*fen, res); err != nil {
			return engine.Result{}, false, err
		}
	}
	return res, false, nil
}

// resultFromRecord rebuilds a result from a stored record. Records whose
// moves no longer parse are ignored.
func resultFromRecord(pos *board.Position, rec *storage.Record) (engine.Result, bool) {
	res := engine.Result{
		Score:     rec.Score,
		Depth:     rec.Depth,
		Nodes:     rec.Nodes,
		SessionID: rec.SessionID,
	}
	if rec.BestMove == board.NoMove.String() {
		return res, true
	}

	p := pos.Copy()
	for i, s := range rec.PV {
		m, err := board.ParseMove(s, p)
		if err != nil {
			return engine.Result{}, false
		}
		if i == 0 {
			res.BestMove = m
		}
		res.PV = append(res.PV, m)
		p.MakeMove(m)
	}
	if res.BestMove == board.NoMove {
		m, err := board.ParseMove(rec.BestMove, pos)
		if err != nil {
			return engine.Result{}, false
		}
		res.BestMove = m
	}
	return res, true
}

func report(eng *engine.Engine, snap *board.FENSnapshot, res engine.Result, cached bool) error {
	if res.BestMove == board.NoMove {
		fmt.Printf("no legal moves, score %s\n", engine.ScoreToString(res.Score))
		return nil
	}

	san, err := eng.MoveToNotation(snap, res.BestMove)
	if err != nil {
		return err
	}
	source := "searched"
	if cached {
		source = "stored"
	}
	fmt.Printf("bestmove %s (%s) score %s depth %d nodes %d [%s, session %s]\n",
		res.BestMove, san, engine.ScoreToString(res.Score), res.Depth, res.Nodes, source, res.SessionID)

	if len(res.PV) > 0 {
		pos, err := board.NewPositionFromSnapshot(snap)
		if err != nil {
			return err
		}
		fmt.Printf("pv %s\n", strings.Join(board.MovesToSAN(pos, res.PV), " "))
	}
	if !cached && !*noCache {
		fmt.Printf("cache hits %d stores %d\n", res.CacheHits, res.CacheStores)
	}
	return nil
}

func runPerft(eng *engine.Engine, snap *board.FENSnapshot) error {
	if *divide {
		pos, err := board.NewPositionFromSnapshot(snap)
		if err != nil {
			return err
		}
		var total uint64
		for _, e := range pos.PerftDivide(*perft) {
			fmt.Printf("%s: %d\n", e.Move, e.Nodes)
			total += e.Nodes
		}
		fmt.Printf("\nNodes searched: %d\n", total)
		return nil
	}

	nodes, err := eng.Perft(snap, *perft)
	if err != nil {
		return err
	}
	fmt.Printf("perft(%d) = %d\n", *perft, nodes)
	return nil
}

func printHistory(store *storage.Storage) error {
	if store == nil {
		return errors.New("-history needs -db")
	}
	records, err := store.Results()
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%016x  %-6s %-8s depth %-2d %s\n",
			rec.Fingerprint, rec.BestMove, engine.ScoreToString(rec.Score), rec.Depth, rec.FEN)
	}
	if stats, err := store.LoadStats(); err == nil && stats.Searches > 0 {
		fmt.Printf("%d searches, %d nodes, %.1f cache hits per search, deepest %d plies\n",
			stats.Searches, stats.Nodes, stats.HitsPerSearch(), stats.DeepestPly)
	}
	return nil
}

func writeDiagrams(snap *board.FENSnapshot, best board.Move) error {
	if *svgOut == "" && *pngOut == "" {
		return nil
	}
	pos, err := board.NewPositionFromSnapshot(snap)
	if err != nil {
		return err
	}
	opts := diagram.Options{Flip: *flip, Highlight: best, Coordinates: true}

	if *svgOut != "" {
		if err := writeFile(*svgOut, func(f *os.File) error {
			return diagram.WriteSVG(f, pos, opts)
		}); err != nil {
			return err
		}
	}
	if *pngOut != "" {
		if err := writeFile(*pngOut, func(f *os.File) error {
			return diagram.WritePNG(f, pos, *pngSize, opts)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}
