package quantifiers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"piquant/ports"
)

// transcriptReference is shared by the methods that quantify against
// transcript sequences. The reference is built with a tool from the RSEM
// package.
type transcriptReference struct {
	name        string
	bowtieIndex bool
}

func (t transcriptReference) refName(quantifierDir string) string {
	n := strings.ToLower(t.name)
	return filepath.Join(quantifierDir, n, n)
}

func (t transcriptReference) preparatoryCommands(p ports.QuantifierParams) []string {
	ref := t.refName(p.QuantifierDir)
	bowtieSpec := ""
	if !t.bowtieIndex {
		bowtieSpec = " --no-bowtie"
	}
	lines := []string{
		comment("Prepare the transcript reference if it doesn't already exist. This only needs to be done once per set of transcripts."),
		fmt.Sprintf("REF_DIR=$(dirname %s)", ref),
	}
	return append(lines, ifMissingDir("$REF_DIR",
		"mkdir -p $REF_DIR",
		fmt.Sprintf("rsem-prepare-reference --gtf %s --no-polyA%s %s %s",
			p.TranscriptGTF, bowtieSpec, p.GenomeFastaDir, ref),
	)...)
}

// RSEM quantifies with rsem-calculate-expression and reports TPM directly.
type RSEM struct{ transcriptReference }

func NewRSEM() *RSEM {
	return &RSEM{transcriptReference{name: "RSEM", bowtieIndex: true}}
}

func (m *RSEM) Name() string            { return m.name }
func (m *RSEM) RequiresPairedEnd() bool { return false }
func (m *RSEM) AbundanceFile() string   { return "rsem_sample.isoforms.results" }

func (m *RSEM) PreparatoryCommands(p ports.QuantifierParams) []string {
	return m.preparatoryCommands(p)
}

func (m *RSEM) QuantificationCommands(p ports.QuantifierParams) []string {
	args := []string{"rsem-calculate-expression", "--time"}
	if !p.FastqReads {
		args = append(args, "--no-qualities")
	}
	args = append(args, "-p", fmt.Sprint(threads(p.Threads)))
	if p.PairedEnd() {
		args = append(args, "--strand-specific", "--paired-end", p.LeftReads, p.RightReads)
	} else {
		args = append(args, p.SimulatedReads)
	}
	args = append(args, m.refName(p.QuantifierDir), "rsem_sample")
	return []string{strings.Join(args, " ")}
}

func (m *RSEM) CleanupCommands() []string {
	return []string{
		`find . -name "rsem_sample*" \! -name rsem_sample.isoforms.results -type f -delete`,
	}
}

func (m *RSEM) ReadAbundances(r io.Reader) (map[string]float64, error) {
	return readTable(r, "transcript_id", "TPM")
}

// Express maps reads to the transcripts with bowtie and quantifies with
// eXpress.
type Express struct{ transcriptReference }

func NewExpress() *Express {
	return &Express{transcriptReference{name: "Express", bowtieIndex: true}}
}

func (m *Express) Name() string            { return m.name }
func (m *Express) RequiresPairedEnd() bool { return false }
func (m *Express) AbundanceFile() string   { return "results.xprs" }

func (m *Express) PreparatoryCommands(p ports.QuantifierParams) []string {
	return m.preparatoryCommands(p)
}

func (m *Express) QuantificationCommands(p ports.QuantifierParams) []string {
	ref := m.refName(p.QuantifierDir)

	qualities := "-f"
	if p.FastqReads {
		qualities = "-q"
	}
	readsSpec := p.SimulatedReads
	stranded := ""
	if p.PairedEnd() {
		readsSpec = fmt.Sprintf("-1 %s -2 %s", p.LeftReads, p.RightReads)
		stranded = "--fr-stranded "
	}

	return []string{
		pipe(
			fmt.Sprintf("bowtie %s -e 99999999 -l 25 -I 1 -X 1000 -a -S -m 200 -p %d %s %s",
				qualities, threads(p.Threads), ref, readsSpec),
			"samtools view -Sb - > hits.bam",
		),
		fmt.Sprintf("express %s%s.transcripts.fa hits.bam", stranded, ref),
	}
}

func (m *Express) CleanupCommands() []string {
	return []string{"rm hits.bam", "rm params.xprs"}
}

func (m *Express) ReadAbundances(r io.Reader) (map[string]float64, error) {
	return readTable(r, "target_id", "tpm")
}

// Sailfish quantifies with an alignment-free k-mer index.
type Sailfish struct{ transcriptReference }

func NewSailfish() *Sailfish {
	return &Sailfish{transcriptReference{name: "Sailfish"}}
}

func (m *Sailfish) Name() string            { return m.name }
func (m *Sailfish) RequiresPairedEnd() bool { return false }
func (m *Sailfish) AbundanceFile() string   { return "quant_filtered.csv" }

func (m *Sailfish) indexDir(quantifierDir string) string {
	return filepath.Join(quantifierDir, "sailfish", "index")
}

func (m *Sailfish) PreparatoryCommands(p ports.QuantifierParams) []string {
	lines := m.preparatoryCommands(p)
	index := m.indexDir(p.QuantifierDir)
	lines = append(lines, comment("Now create the Sailfish transcript index if it doesn't already exist."))
	return append(lines, ifMissingDir(index,
		fmt.Sprintf("sailfish index -p %d -t %s.transcripts.fa -k 20 -o %s",
			threads(p.Threads), m.refName(p.QuantifierDir), index),
	)...)
}

func (m *Sailfish) QuantificationCommands(p ports.QuantifierParams) []string {
	library := `"T=SE:S=U"`
	readsSpec := "-r " + p.SimulatedReads
	if p.PairedEnd() {
		library = `"T=PE:O=><:S=SA"`
		readsSpec = fmt.Sprintf("-1 %s -2 %s", p.LeftReads, p.RightReads)
	}
	return []string{
		fmt.Sprintf("sailfish quant -p %d -i %s -l %s %s -o .",
			threads(p.Threads), m.indexDir(p.QuantifierDir), library, readsSpec),
		pipe(`grep -v '^# \[' quant_bias_corrected.sf`, `sed -e 's/^# //' > quant_filtered.csv`),
	}
}

func (m *Sailfish) CleanupCommands() []string {
	return []string{"rm -rf logs quant_bias_corrected.sf quant.sf reads.count_info reads.sfc"}
}

func (m *Sailfish) ReadAbundances(r io.Reader) (map[string]float64, error) {
	return readTable(r, "Transcript", "TPM")
}

// Salmon quantifies with a lightweight-alignment index.
type Salmon struct{ transcriptReference }

func NewSalmon() *Salmon {
	return &Salmon{transcriptReference{name: "Salmon"}}
}

func (m *Salmon) Name() string            { return m.name }
func (m *Salmon) RequiresPairedEnd() bool { return false }
func (m *Salmon) AbundanceFile() string   { return "quant_filtered.csv" }

func (m *Salmon) indexDir(quantifierDir string) string {
	return filepath.Join(quantifierDir, "salmon", "index")
}

func (m *Salmon) PreparatoryCommands(p ports.QuantifierParams) []string {
	lines := m.preparatoryCommands(p)
	index := m.indexDir(p.QuantifierDir)
	lines = append(lines, comment("Now create the Salmon transcript index if it doesn't already exist."))
	return append(lines, ifMissingDir(index,
		fmt.Sprintf("salmon index -t %s.transcripts.fa -i %s", m.refName(p.QuantifierDir), index),
	)...)
}

func (m *Salmon) QuantificationCommands(p ports.QuantifierParams) []string {
	library := "U"
	readsSpec := "-r " + p.SimulatedReads
	if p.PairedEnd() {
		library = "ISF"
		readsSpec = fmt.Sprintf("-1 %s -2 %s", p.LeftReads, p.RightReads)
	}
	return []string{
		fmt.Sprintf("salmon quant -p %d -i %s -l %s %s -o .",
			threads(p.Threads), m.indexDir(p.QuantifierDir), library, readsSpec),
		pipe(`grep -v '^# \[\|salmon' quant.sf`, `sed -e 's/^# //' > quant_filtered.csv`),
	}
}

func (m *Salmon) CleanupCommands() []string {
	return []string{"rm -rf logs quant.sf"}
}

func (m *Salmon) ReadAbundances(r io.Reader) (map[string]float64, error) {
	return readTable(r, "Name", "TPM")
}
