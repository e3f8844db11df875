// Package flux knows the files Flux Simulator reads and writes, and builds
// the simulation script of a reads directory.
package flux

import (
	"fmt"
	"strconv"

	"piquant/internal/script"
)

const (
	ParamsFile       = "flux_simulator.par"
	ProFile          = "flux_simulator.pro"
	LibFile          = "flux_simulator.lib"
	SimulationScript = "run_simulation.sh"
	readNumberMarker = "READ_NUMBER_PLACEHOLDER"
)

// Columns of the expression profile (.pro) file, zero-based
const (
	ProTranscriptIDCol = 1
	ProLengthCol       = 3
	ProFractionCol     = 4
)

// ReadsFile is the simulated reads file name. With an error model Flux
// writes FASTQ with qualities. Paired-end reads are split into left and
// right files and side selects one of them ("l" or "r"); an empty side means
// single-end.
func ReadsFile(errors bool, side string) string {
	ext := "fasta"
	if errors {
		ext = "fastq"
	}
	if side == "" {
		return "reads." + ext
	}
	return "reads." + side + "." + ext
}

// CompletionFile is the file whose presence shows read simulation finished.
// For paired-end reads that is the left reads file.
func CompletionFile(errors, pairedEnd bool) string {
	if pairedEnd {
		return ReadsFile(errors, "l")
	}
	return ReadsFile(errors, "")
}

// Simulation describes one read simulation
type Simulation struct {
	TranscriptGTF  string
	GenomeFastaDir string
	NumFragments   int
	ReadLength     int
	ReadDepth      int
	PairedEnd      bool
	Errors         bool
	Bias           bool
}

// Params returns the lines of the Flux Simulator parameters file. The read
// number is filled in by the simulation script once the expression profile
// exists.
func (s Simulation) Params() []string {
	lines := []string{
		"REF_FILE_NAME " + s.TranscriptGTF,
		"GEN_DIR " + s.GenomeFastaDir,
		"NB_MOLECULES " + strconv.Itoa(s.NumFragments),
		"PCR_DISTRIBUTION none",
		"LIB_FILE_NAME " + LibFile,
		"SEQ_FILE_NAME reads.bed",
		"FASTA YES",
		"READ_NUMBER " + readNumberMarker,
		"READ_LENGTH " + strconv.Itoa(s.ReadLength),
		"PAIRED_END " + yesNo(s.PairedEnd),
		"UNIQUE_IDS YES",
	}
	if s.PairedEnd {
		lines = append(lines, "FRAG_SUBSTRATE RNA", "FRAG_METHOD UR")
	}
	if s.Errors {
		// Flux ships error models for 35 and 76 base reads
		errorModel := "35"
		if s.ReadLength > 50 {
			errorModel = "76"
		}
		lines = append(lines, "ERR_FILE "+errorModel)
	}
	if s.Bias {
		lines = append(lines, "RT_MOTIF default")
	}
	return lines
}

// Script builds run_simulation.sh
func (s Simulation) Script() *script.Script {
	sc := script.New()

	sc.Commented("Run Flux Simulator to create expression profiles",
		fmt.Sprintf("flux-simulator -t simulator -x -p %s", ParamsFile))

	sc.Commented("Flux Simulator sometimes writes transcripts of zero length, which breaks read simulation",
		fmt.Sprintf("ZERO_LENGTH_COUNT=$(awk 'BEGIN {i=0} $%d == 0 {i++;} END{print i}' %s)", ProLengthCol+1, ProFile),
		"echo Removing $ZERO_LENGTH_COUNT transcripts with zero length...",
		fmt.Sprintf("awk '$%d > 0' %s > tmp; mv tmp %s", ProLengthCol+1, ProFile, ProFile))

	sc.Commented(fmt.Sprintf("Calculate the number of reads required for a depth of %dx", s.ReadDepth),
		fmt.Sprintf(`READ_NUMBER=$(awk -v depth=%d -v len=%d '$%d > 0 {sum += $%d} END {printf "%%d", sum * depth / len}' %s)`,
			s.ReadDepth, s.ReadLength, ProFractionCol+1, ProLengthCol+1, ProFile),
		fmt.Sprintf(`sed -i "s/%s/$READ_NUMBER/" %s`, readNumberMarker, ParamsFile))

	sc.Commented("Simulate reads",
		fmt.Sprintf("flux-simulator -t simulator -l -s -p %s", ParamsFile))

	if s.PairedEnd {
		whole := ReadsFile(s.Errors, "")
		linesPerRead := "- -"
		if s.Errors {
			linesPerRead = "- - - -"
		}
		sc.Commented("Split paired-end reads into left and right files",
			script.Pipe(
				fmt.Sprintf("paste %s < %s", linesPerRead, whole),
				fmt.Sprintf(`awk -F '\t' '$1 ~ /\/1$/ {OFS="\n"; $1=$1; print > "%s"; next} {OFS="\n"; $1=$1; print > "%s"}'`,
					ReadsFile(s.Errors, "l"), ReadsFile(s.Errors, "r")),
			),
			"rm "+whole)
	}

	sc.Commented("Remove intermediate files",
		"rm -f reads.bed "+LibFile)
	return sc
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
