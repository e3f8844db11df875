package main

import (
	"context"

	"github.com/spf13/cobra"

	"piquant/adapters/quantifiers"
	"piquant/adapters/resultsdb"
	"piquant/app"
	"piquant/domain/parameters"
	"piquant/internal/config"
	"piquant/ports"
)

// sweepFlags are the options of every command that iterates parameter sets
type sweepFlags struct {
	paramsFile       string
	outputDir        string
	transcriptGTF    string
	genomeFastaDir   string
	numFragments     int
	threads          int
	threshold        float64
	quantifierParams string

	// raw comma-separated candidates, keyed by parameter name
	candidates map[string]*string
}

func (c *cli) addSweepFlags(cmd *cobra.Command) *sweepFlags {
	f := &sweepFlags{candidates: make(map[string]*string)}
	flags := cmd.Flags()

	flags.StringVar(&f.paramsFile, "params-file", "", "YAML file of parameter candidate lists; flags override its entries")
	flags.StringVar(&f.outputDir, "out-dir", c.cfg.Paths.OutputDir, "Parent directory of reads and run directories")
	flags.StringVar(&f.transcriptGTF, "transcript-gtf", "", "GTF file of transcripts to simulate and quantify")
	flags.StringVar(&f.genomeFastaDir, "genome-fasta", "", "Directory of per-chromosome genome FASTA files")
	flags.IntVar(&f.numFragments, "num-fragments", c.cfg.Simulation.NumFragments, "Number of fragments Flux Simulator generates")
	flags.IntVar(&f.threads, "threads", c.cfg.Simulation.Threads, "Threads used by quantification methods")
	flags.Float64Var(&f.threshold, "threshold", c.cfg.Assessment.DetectionThreshold, "TPM above which a transcript counts as expressed")
	flags.StringVar(&f.quantifierParams, "quantifier-params", "", "Extra key=value settings passed to quantification methods")

	usage := map[string]string{
		parameters.QuantMethod: "Quantification methods",
		parameters.PairedEnd:   "Paired-end reads (true/false)",
		parameters.Errors:      "Simulate sequencing errors (true/false)",
		parameters.Bias:        "Simulate sequence bias (true/false)",
		parameters.ReadLength:  "Read lengths",
		parameters.ReadDepth:   "Read depths",
	}
	for _, name := range []string{
		parameters.QuantMethod, parameters.PairedEnd, parameters.Errors,
		parameters.Bias, parameters.ReadLength, parameters.ReadDepth,
	} {
		f.candidates[name] = flags.String(name, "", usage[name]+", comma-separated")
	}
	return f
}

// sweepOptions tune how a command builds its sweep
type sweepOptions struct {
	ignore        []string
	requireInputs bool
	prepareOnly   bool
	runOnly       bool
}

// build validates the candidates and run options and expands the sweep.
// Nothing is written before it returns.
func (f *sweepFlags) build(c *cli, opts sweepOptions) (*app.Sweep, []parameters.Set, error) {
	explicit := make(map[string][]string)
	for name, raw := range f.candidates {
		if *raw != "" {
			explicit[name] = parameters.SplitList(*raw)
		}
	}

	file := &config.SweepFile{Params: map[string][]string{}, QuantifierParams: map[string]string{}}
	if f.paramsFile != "" {
		var err error
		if file, err = config.LoadSweepFile(f.paramsFile); err != nil {
			return nil, nil, err
		}
	}

	quantParams := file.QuantifierParams
	if f.quantifierParams != "" {
		overrides, err := config.ParseKeyValues(f.quantifierParams)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range overrides {
			quantParams[k] = v
		}
	}

	catalog := parameters.NewCatalog(quantifiers.BuildRegistry())
	cands, err := catalog.Validate(file.Merge(explicit), opts.ignore...)
	if err != nil {
		return nil, nil, err
	}

	run, err := config.NewRun(config.RunOptions{
		OutputDir:          f.outputDir,
		TranscriptGTF:      f.transcriptGTF,
		GenomeFastaDir:     f.genomeFastaDir,
		NumFragments:       f.numFragments,
		Threads:            f.threads,
		DetectionThreshold: f.threshold,
		QuantifierParams:   quantParams,
		PrepareOnly:        opts.prepareOnly,
		RunOnly:            opts.runOnly,
		RequireInputs:      opts.requireInputs,
	})
	if err != nil {
		return nil, nil, err
	}

	sweep := app.NewSweep(run, catalog, c.logger)
	sets := catalog.Expand(cands)
	sweep.Logger.Debug("Expanded %d parameter sets", len(sets))
	return sweep, sets, nil
}

// openResults connects to the results store when one is configured
func (c *cli) openResults(ctx context.Context) (ports.ResultsRepository, error) {
	if c.cfg.Database.DSN == "" {
		return nil, nil
	}
	repo, err := resultsdb.Open(ctx, c.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
