package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goldledger/internal/catalog"
	"goldledger/internal/config"
	"goldledger/internal/engine"
	"goldledger/internal/export"
	"goldledger/internal/host"
	"goldledger/internal/ledger"
	"goldledger/internal/logging"
)

func main() {
	rcfg, err := config.LoadReplay()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	var (
		eventsPath  = flag.String("events", rcfg.EventsPath, "recorded host envelopes (.jsonl or .jsonl.zst)")
		catalogPath = flag.String("catalog", rcfg.CatalogPath, "item catalog yaml (optional)")
		exportPath  = flag.String("export", rcfg.ExportPath, "write the resulting ledger as .jsonl.zst (optional)")
		verbose     = flag.Bool("v", false, "print every transaction")
	)
	flag.Parse()

	if *eventsPath == "" {
		fmt.Fprintln(os.Stderr, "missing -events")
		os.Exit(2)
	}

	logCfg, err := config.LoadLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "log config:", err)
		os.Exit(2)
	}
	logging.Init(logCfg)
	if !*verbose && zerolog.GlobalLevel() < zerolog.WarnLevel {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	engCfg, err := config.LoadEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine config:", err)
		os.Exit(2)
	}

	envs, err := readEvents(*eventsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read events:", err)
		os.Exit(1)
	}

	var cat *catalog.Catalog
	if *catalogPath != "" {
		cat, err = catalog.Load(*catalogPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load catalog:", err)
			os.Exit(1)
		}
	}

	st := ledger.NewMemoryStore()
	led := ledger.New(st)
	mirror := host.NewMirror(cat)
	sched := engine.NewManualScheduler(startTime(envs))
	eng := engine.New(mirror, sched, led, engine.ConfigFrom(engCfg))
	host.Replay(envs, mirror, sched, eng)

	ctx := context.Background()
	txs, err := led.Query(ctx, ledger.Filter{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if *verbose {
		for _, t := range txs {
			fmt.Printf("%s %-22s %10s  %-24s %s\n", t.Timestamp.Format(time.RFC3339), t.Kind, ledger.FormatMoney(t.Value), t.Source, t.Confidence)
		}
	}
	printSummary(os.Stdout, len(envs), txs)

	if *exportPath != "" {
		if err := writeExport(*exportPath, txs); err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(1)
		}
		fmt.Printf("exported %d transactions to %s\n", len(txs), *exportPath)
	}
	log.Debug().Int("envelopes", len(envs)).Int("transactions", len(txs)).Msg("replay done")
}

func readEvents(path string) ([]host.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	return host.ReadScript(r)
}

// startTime puts the virtual clock just before the first stamped envelope so
// unstamped leading envelopes still get a sensible time.
func startTime(envs []host.Envelope) time.Time {
	for _, env := range envs {
		if env.At != nil {
			return env.At.Add(-time.Second)
		}
	}
	return time.Now().UTC()
}

func printSummary(w io.Writer, envelopes int, txs []ledger.Transaction) {
	byKind := map[ledger.Kind]*ledger.Summary{}
	for _, t := range txs {
		s, ok := byKind[t.Kind]
		if !ok {
			s = &ledger.Summary{}
			byKind[t.Kind] = s
		}
		s.Add(t)
	}
	kinds := make([]ledger.Kind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	total := ledger.Summarize(txs)
	fmt.Fprintf(w, "replayed %d envelopes -> %d transactions\n", envelopes, total.Count)
	for _, k := range kinds {
		s := byKind[k]
		fmt.Fprintf(w, "  %-22s %-20s x%-4d %12s\n", k, k.Label(), s.Count, ledger.FormatMoney(s.NetGold))
	}
	fmt.Fprintf(w, "income %s  expense %s  net %s\n",
		ledger.FormatMoney(total.TotalIncome), ledger.FormatMoney(-total.TotalExpense), ledger.FormatMoney(total.NetGold))
}

func writeExport(path string, txs []ledger.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, txs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
