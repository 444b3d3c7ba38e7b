// Copyright 2026, the rrnascreen contributors.

// Package config holds the flat, JSON-decoded run configuration
// (teacher's utils.Config convention) and the immutable SearchConfig
// derived from it that is threaded through the driver, replacing the
// source's process-wide flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kshedden/rrnascreen/internal/chain"
	"github.com/kshedden/rrnascreen/internal/readdriver"
)

// Config is the on-disk, JSON-decoded run configuration.
type Config struct {
	// IndexFiles is the ordered list of index files to iterate over
	// in the outer loop.
	IndexFiles []string

	// NumFreadThreads is R, the number of Reader goroutines.
	NumFreadThreads int

	// NumProcThreads is P, the number of Processor goroutines.
	NumProcThreads int

	// NumWriteThreads is the number of Writer goroutines.
	NumWriteThreads int

	// KVDBPath is the filesystem path of the embedded checkpoint
	// store.
	KVDBPath string

	// Forward restricts the search to the forward strand.
	Forward bool

	ReadFileName    string
	ResultsFileName string
	LogDir          string

	NumAlignments int
	NumBestHits   int
	MinLIS        int

	SeedHitsThreshold int
	Edges             int

	Match     int32
	Mismatch  int32
	GapOpen   int32
	GapExtend int32

	Lambda float64
	K      float64

	EvalueCutoff float64
	MinSWScore   int32
	MinID        float64
	MinCov       float64

	Otumap    string
	DeNovoOtu bool

	// SAMFileName, MatchedFastaName, and UnmatchedFastaName, when
	// set, enable their respective output sinks alongside the
	// always-on tabular results file.
	SAMFileName        string
	MatchedFastaName   string
	UnmatchedFastaName string

	QueueSizeMax int

	CPUProfile bool
}

// ReadConfig decodes a JSON configuration file, panicking on I/O or
// decode failure: a malformed or missing configuration file is a
// fatal setup error.
func ReadConfig(filename string) *Config {
	fid, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer fid.Close()

	cfg := new(Config)
	dec := json.NewDecoder(fid)
	if err := dec.Decode(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// SearchConfig builds the immutable driver configuration from the
// parsed Config. DBSize must be supplied by the caller once
// the index part's reference lengths are known (it is summed across
// all loaded references, so it cannot live in the static JSON file).
//
// When EvalueCutoff is set, it is converted to a minimum raw score via
// chain.MinScoreFromEvalue against the now-known DBSize and combined
// with the configured MinSWScore floor by taking the larger of the
// two, so either threshold alone is enough to reject an alignment.
func (c *Config) SearchConfig(dbSize int64) readdriver.SearchConfig {
	scorer := chain.Scorer{
		Match:     c.Match,
		Mismatch:  c.Mismatch,
		GapOpen:   c.GapOpen,
		GapExtend: c.GapExtend,
		Lambda:    c.Lambda,
		K:         c.K,
		DBSize:    dbSize,
	}

	minSWScore := c.MinSWScore
	if c.EvalueCutoff > 0 {
		if derived := chain.MinScoreFromEvalue(c.EvalueCutoff, dbSize, &scorer); derived > minSWScore {
			minSWScore = derived
		}
	}

	return readdriver.SearchConfig{
		Forward: c.Forward,
		Scorer:  scorer,
		Accept: chain.AcceptParams{
			SeedHitsThreshold: c.SeedHitsThreshold,
			Edges:             c.Edges,
			MinSWScore:        minSWScore,
			MinID:             c.MinID,
			MinCov:            c.MinCov,
			NumAlignments:     c.NumAlignments,
			NumBestHits:       c.NumBestHits,
			MinLIS:            c.MinLIS,
		},
	}
}

// Validate checks the configuration invariants the outer loop depends
// on before spawning any workers.
func (c *Config) Validate() error {
	if len(c.IndexFiles) == 0 {
		return fmt.Errorf("config: indexfiles must be non-empty")
	}
	if c.NumFreadThreads <= 0 || c.NumProcThreads <= 0 {
		return fmt.Errorf("config: num_fread_threads and num_proc_threads must be positive")
	}
	if c.QueueSizeMax <= 0 {
		c.QueueSizeMax = 1024
	}
	if c.NumWriteThreads <= 0 {
		c.NumWriteThreads = 1
	}
	return nil
}
