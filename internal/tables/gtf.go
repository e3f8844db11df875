package tables

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TranscriptGene maps a transcript to its gene and the gene's isoform count
type TranscriptGene struct {
	Transcript      string
	Gene            string
	TranscriptCount int
}

// CountTranscripts reads a GTF file and returns every transcript with the
// number of transcripts of its gene, in order of first appearance
func CountTranscripts(r io.Reader) ([]TranscriptGene, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []TranscriptGene
	seen := make(map[string]bool)
	perGene := make(map[string]int)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 9 {
			return nil, fmt.Errorf("gtf line %d: expected 9 tab-separated fields, got %d", line, len(fields))
		}
		attrs := gtfAttributes(fields[8])
		transcript, gene := attrs["transcript_id"], attrs["gene_id"]
		if transcript == "" || gene == "" {
			return nil, fmt.Errorf("gtf line %d: missing transcript_id or gene_id", line)
		}
		if seen[transcript] {
			continue
		}
		seen[transcript] = true
		perGene[gene]++
		out = append(out, TranscriptGene{Transcript: transcript, Gene: gene})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TranscriptCount = perGene[out[i].Gene]
	}
	return out, nil
}

// gtfAttributes parses `key "value"; key2 "value2";`
func gtfAttributes(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), " ")
		if !ok {
			continue
		}
		attrs[key] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return attrs
}

// WriteTranscriptCounts writes the transcript,gene,transcript_count CSV
func WriteTranscriptCounts(w io.Writer, counts []TranscriptGene) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{TranscriptCol, GeneCol, TranscriptCountCol}); err != nil {
		return err
	}
	for _, c := range counts {
		if err := cw.Write([]string{c.Transcript, c.Gene, strconv.Itoa(c.TranscriptCount)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
