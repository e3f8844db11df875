package quantifiers

import (
	"fmt"
	"io"
	"path/filepath"

	"piquant/ports"
)

// Cufflinks maps reads to the genome with TopHat and quantifies isoforms
// with Cufflinks. It reports FPKMs, which are rescaled to sum to one million.
type Cufflinks struct{}

func NewCufflinks() *Cufflinks { return &Cufflinks{} }

func (c *Cufflinks) Name() string            { return "Cufflinks" }
func (c *Cufflinks) RequiresPairedEnd() bool { return false }
func (c *Cufflinks) AbundanceFile() string   { return filepath.Join("transcriptome", "isoforms.fpkm_tracking") }

func bowtieIndex(quantifierDir string) string {
	return filepath.Join(quantifierDir, "bowtie-index", "index")
}

func (c *Cufflinks) PreparatoryCommands(p ports.QuantifierParams) []string {
	index := bowtieIndex(p.QuantifierDir)
	lines := []string{
		comment("Prepare the bowtie index for read mapping if it doesn't already exist. This only needs to be done once per reference genome."),
		fmt.Sprintf("BOWTIE_INDEX_DIR=$(dirname %s)", index),
	}
	return append(lines, ifMissingDir("$BOWTIE_INDEX_DIR",
		"mkdir -p $BOWTIE_INDEX_DIR",
		fmt.Sprintf(`REF_FILES=$(ls -1 %s/*.fa | tr '\n' ',')`, p.GenomeFastaDir),
		"REF_FILES=${REF_FILES%,}",
		fmt.Sprintf("bowtie-build $REF_FILES %s", index),
		fmt.Sprintf("bowtie-inspect %s > %s.fa", index, index),
	)...)
}

func (c *Cufflinks) QuantificationCommands(p ports.QuantifierParams) []string {
	index := bowtieIndex(p.QuantifierDir)

	readsSpec := p.SimulatedReads
	stranded := "--library-type fr-unstranded"
	if p.PairedEnd() {
		readsSpec = p.LeftReads + " " + p.RightReads
		stranded = "--library-type fr-secondstrand"
	}
	n := threads(p.Threads)

	return []string{
		fmt.Sprintf("tophat %s --no-coverage-search -p %d -o tho %s %s", stranded, n, index, readsSpec),
		fmt.Sprintf("cufflinks -o transcriptome -u -b %s.fa -p %d %s -G %s tho/accepted_hits.bam",
			index, n, stranded, p.TranscriptGTF),
	}
}

func (c *Cufflinks) CleanupCommands() []string {
	return []string{
		"rm -rf tho",
		`find transcriptome \! -name 'isoforms.fpkm_tracking' -type f -delete`,
	}
}

func (c *Cufflinks) ReadAbundances(r io.Reader) (map[string]float64, error) {
	fpkms, err := readTable(r, "tracking_id", "FPKM")
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, v := range fpkms {
		total += v
	}
	if total == 0 {
		return fpkms, nil
	}
	norm := 1000000 / total
	for id, v := range fpkms {
		fpkms[id] = v * norm
	}
	return fpkms, nil
}
