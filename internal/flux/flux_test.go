package flux

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadsFile(t *testing.T) {
	assert.Equal(t, "reads.fasta", ReadsFile(false, ""))
	assert.Equal(t, "reads.fastq", ReadsFile(true, ""))
	assert.Equal(t, "reads.r.fasta", ReadsFile(false, "r"))
	assert.Equal(t, "reads.l.fastq", CompletionFile(true, true))
	assert.Equal(t, "reads.fasta", CompletionFile(false, false))
}

func TestParams(t *testing.T) {
	s := Simulation{
		TranscriptGTF: "/ref/t.gtf", GenomeFastaDir: "/ref/genome",
		NumFragments: 5000, ReadLength: 100, ReadDepth: 10,
		PairedEnd: true, Errors: true, Bias: true,
	}
	params := s.Params()
	assert.Contains(t, params, "REF_FILE_NAME /ref/t.gtf")
	assert.Contains(t, params, "NB_MOLECULES 5000")
	assert.Contains(t, params, "READ_LENGTH 100")
	assert.Contains(t, params, "PAIRED_END YES")
	assert.Contains(t, params, "ERR_FILE 76")
	assert.Contains(t, params, "RT_MOTIF default")

	s.PairedEnd, s.Errors, s.Bias = false, false, false
	params = s.Params()
	assert.Contains(t, params, "PAIRED_END NO")
	for _, l := range params {
		assert.False(t, strings.HasPrefix(l, "ERR_FILE"))
		assert.False(t, strings.HasPrefix(l, "RT_MOTIF"))
	}
}

func TestScript(t *testing.T) {
	single := Simulation{ReadLength: 50, ReadDepth: 30}.Script().String()
	assert.True(t, strings.HasPrefix(single, "#!/bin/bash\n"))
	assert.Contains(t, single, "flux-simulator -t simulator -x -p flux_simulator.par")
	assert.Contains(t, single, "flux-simulator -t simulator -l -s -p flux_simulator.par")
	assert.Contains(t, single, "depth=30 -v len=50")
	assert.NotContains(t, single, "reads.l.")

	paired := Simulation{ReadLength: 50, ReadDepth: 30, PairedEnd: true, Errors: true}.Script().String()
	assert.Contains(t, paired, "paste - - - - < reads.fastq")
	assert.Contains(t, paired, `"reads.l.fastq"`)
	assert.Contains(t, paired, `"reads.r.fastq"`)
}
