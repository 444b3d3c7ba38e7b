// Copyright 2026, the rrnascreen contributors.

// rrnascreen classifies sequencing reads against one or more reference
// sequence collections using a parallel seed-and-extend pipeline: a
// burst-trie seed index narrows candidates, LIS chaining and banded
// Smith-Waterman extension score them, and accepted alignments are
// checkpointed across index parts so a read is never re-aligned
// against a part it has already cleared.
//
// rrnascreen is invoked with a single JSON configuration file:
//
//	rrnascreen --ConfigFileName=config.json
//
// The configuration file's fields are documented on
// internal/config.Config. Index files must already be built (index
// construction is out of scope) and named so that
// internal/refindex.Load can enumerate their parts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/kshedden/rrnascreen/internal/chain"
	"github.com/kshedden/rrnascreen/internal/config"
	"github.com/kshedden/rrnascreen/internal/pipeline"
	"github.com/kshedden/rrnascreen/internal/readdriver"
	"github.com/kshedden/rrnascreen/internal/refindex"
	"github.com/kshedden/rrnascreen/internal/rstats"
	"github.com/kshedden/rrnascreen/internal/seqcode"
	"github.com/kshedden/rrnascreen/internal/sinkio"
)

var (
	cfg    *config.Config
	logger *log.Logger
)

// makeLogDir assigns a fresh, UUID-named subdirectory under the
// configured LogDir: every run gets its own directory so concurrent
// runs never collide.
func makeLogDir() string {
	xuid, err := uuid.NewUUID()
	if err != nil {
		os.Stderr.WriteString("Error generating a run id, see log files for details.\n")
		log.Fatal(err)
	}

	base := cfg.LogDir
	if base == "" {
		base = "rrnascreen_logs"
	}
	dir := path.Join(base, xuid.String())
	if err := os.MkdirAll(dir, 0770); err != nil {
		msg := fmt.Sprintf("Cannot create directory %s for log files.\n", dir)
		os.Stderr.WriteString(msg)
		log.Fatal(err)
	}
	return dir
}

func setupLog(dir string) *log.Logger {
	logname := path.Join(dir, "rrnascreen.log")
	fid, err := os.Create(logname)
	if err != nil {
		msg := fmt.Sprintf("Error creating %s, see log files for details.\n", logname)
		os.Stderr.WriteString(msg)
		log.Fatal(err)
	}
	return log.New(fid, "", log.Ltime)
}

// sumReferenceBases totals the base count across every reference in
// every part of every index file, for the E-value DBSize parameter
// (the scorer needs the search-space size its statistics are computed
// against). It also returns every reference seen, in index/part order
// and with any repeats, for the SAM sink's up-front header (which
// drops repeated headers itself).
func sumReferenceBases(indexDirs []string) (int64, []seqcode.Reference, error) {
	var total int64
	var all []seqcode.Reference
	for indexNum, dir := range indexDirs {
		for partNum := 0; ; partNum++ {
			part, err := refindex.Load(dir, indexNum, partNum)
			if err != nil {
				if partNum == 0 {
					return 0, nil, fmt.Errorf("scanning index %d: %w", indexNum, err)
				}
				break
			}
			for _, r := range part.References {
				total += int64(len(r.Seq))
				all = append(all, r)
			}
		}
	}
	return total, all, nil
}

// openSinks constructs the configured output sinks. Otumap is only
// produced when cfg.Otumap is set; the tabular results file is always
// written.
func openSinks(allRefs []seqcode.Reference, accept chain.AcceptParams) ([]sinkio.AlignmentSink, func(), error) {
	var sinks []sinkio.AlignmentSink
	var closers []func() error

	resultsName := cfg.ResultsFileName
	if resultsName == "" {
		resultsName = "results.txt"
		os.Stderr.WriteString("ResultsFileName not specified, defaulting to 'results.txt'\n")
	}
	resultsFile, err := os.Create(resultsName)
	if err != nil {
		return nil, nil, err
	}
	tab := sinkio.NewTabularSink(resultsFile)
	sinks = append(sinks, tab)
	closers = append(closers, tab.Close, resultsFile.Close)

	if cfg.Otumap != "" {
		otuFile, err := os.Create(cfg.Otumap)
		if err != nil {
			return nil, nil, err
		}
		otu := sinkio.NewOTUMapSink(otuFile, accept)
		sinks = append(sinks, otu)
		closers = append(closers, otu.Close, otuFile.Close)
	}

	if cfg.SAMFileName != "" {
		samFile, err := os.Create(cfg.SAMFileName)
		if err != nil {
			return nil, nil, err
		}
		sam, err := sinkio.NewSAMSink(samFile, allRefs)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sam)
		closers = append(closers, sam.Close, samFile.Close)
	}

	if cfg.MatchedFastaName != "" {
		f, err := os.Create(cfg.MatchedFastaName)
		if err != nil {
			return nil, nil, err
		}
		fa := sinkio.NewFastaSink(f, true)
		sinks = append(sinks, fa)
		closers = append(closers, fa.Close, f.Close)
	}

	if cfg.UnmatchedFastaName != "" {
		f, err := os.Create(cfg.UnmatchedFastaName)
		if err != nil {
			return nil, nil, err
		}
		fa := sinkio.NewFastaSink(f, false)
		sinks = append(sinks, fa)
		closers = append(closers, fa.Close, f.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Print(err)
			}
		}
	}
	return sinks, closeAll, nil
}

func handleArgs() string {
	ConfigFileName := flag.String("ConfigFileName", "", "JSON file containing configuration parameters")
	flag.Parse()
	if *ConfigFileName == "" {
		os.Stderr.WriteString("\nConfigFileName not provided, run 'rrnascreen --help' for more information.\n\n")
		os.Exit(1)
	}
	return *ConfigFileName
}

func main() {
	configFileName := handleArgs()
	cfg = config.ReadConfig(configFileName)
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logDir := makeLogDir()
	logger = setupLog(logDir)
	logger.Printf("Storing log files in %s", logDir)

	if cfg.CPUProfile {
		p := profile.Start(profile.ProfilePath(logDir))
		defer p.Stop()
	}

	dbSize, allRefs, err := sumReferenceBases(cfg.IndexFiles)
	if err != nil {
		logger.Print(err)
		os.Stderr.WriteString("Error scanning index files, see log files for details.\n")
		os.Exit(1)
	}
	logger.Printf("Reference database size: %d bases across %d sequences", dbSize, len(allRefs))

	searchCfg := cfg.SearchConfig(dbSize)
	driver := readdriver.New(searchCfg)

	sinks, closeSinks, err := openSinks(allRefs, searchCfg.Accept)
	if err != nil {
		logger.Print(err)
		os.Stderr.WriteString("Error opening output files, see log files for details.\n")
		os.Exit(1)
	}
	defer closeSinks()

	store, err := pipeline.OpenCheckpointStore(cfg.KVDBPath)
	if err != nil {
		logger.Print(err)
		os.Stderr.WriteString("Error opening checkpoint store, see log files for details.\n")
		os.Exit(1)
	}
	defer store.Close()

	stats := rstats.New()

	err = pipeline.Run(pipeline.OuterLoopParams{
		IndexDirs:     cfg.IndexFiles,
		ReadFileName:  cfg.ReadFileName,
		NumReaders:    cfg.NumFreadThreads,
		NumProcessors: cfg.NumProcThreads,
		NumWriters:    cfg.NumWriteThreads,
		QueueSize:     cfg.QueueSizeMax,
		NumAlignments: cfg.NumAlignments,
		Driver:        driver,
		Store:         store,
		Stats:         stats,
		Sinks:         sinks,
	})
	if err != nil {
		logger.Print(err)
		os.Stderr.WriteString("Error during screening, see log files for details.\n")
		os.Exit(1)
	}

	summaryPath := path.Join(logDir, "summary.log")
	fid, err := os.Create(summaryPath)
	if err != nil {
		logger.Print(err)
	} else {
		if err := sinkio.WriteLogSummary(fid, stats.Snapshot(), time.Now()); err != nil {
			logger.Print(err)
		}
		fid.Close()
	}
	logger.Print(stats.Snapshot().Summary(time.Now()))

	logger.Print("All done")
}
