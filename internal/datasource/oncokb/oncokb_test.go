package oncokb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleList = "Hugo Symbol\tEntrez Gene ID\tGene Type\tGene Aliases\n" +
	"KRAS\t3845\tONCOGENE\tKRAS2, RASK2\n" +
	"TP53\t7157\tTSG\tP53, LFS1\n" +
	"BRCA1\t672\tTSG\t\n" +
	"NOTCH1\t4851\tONCOGENE,TSG\tTAN1\n" +
	"\t0\tTSG\t\n" +
	"SHORT\n"

func TestParseCancerGeneList(t *testing.T) {
	cgl, err := ParseCancerGeneList(strings.NewReader(sampleList))
	require.NoError(t, err)

	tests := []struct {
		gene     string
		hugo     string
		geneType string
		oncogene bool
		tsg      bool
	}{
		{"KRAS", "KRAS", "ONCOGENE", true, false},
		{"TP53", "TP53", "TSG", false, true},
		{"BRCA1", "BRCA1", "TSG", false, true},
		{"NOTCH1", "NOTCH1", "ONCOGENE,TSG", true, true},
		{"RASK2", "KRAS", "ONCOGENE", true, false},
		{"P53", "TP53", "TSG", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.gene, func(t *testing.T) {
			ann, ok := cgl[tt.gene]
			require.True(t, ok, "gene %s should be in cancer gene list", tt.gene)
			assert.Equal(t, tt.hugo, ann.HugoSymbol)
			assert.Equal(t, tt.geneType, ann.GeneType)
			assert.Equal(t, tt.oncogene, ann.IsOncogene())
			assert.Equal(t, tt.tsg, ann.IsTSG())
		})
	}
	assert.False(t, cgl.IsCancerGene("SHORT"))
	assert.False(t, cgl.IsCancerGene(""))
}

func TestParseCancerGeneList_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", "empty file"},
		{"no hugo", "Gene Type\nTSG\n", "Hugo Symbol"},
		{"no type", "Hugo Symbol\nTP53\n", "Gene Type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCancerGeneList(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCancerGeneList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cancerGeneList.tsv")
	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o644))

	cgl, err := LoadCancerGeneList(path)
	require.NoError(t, err)
	assert.Equal(t, "TSG", cgl.GeneType("TP53"))

	_, err = LoadCancerGeneList("/nonexistent/path.tsv")
	assert.Error(t, err)
}

func TestCancerGeneList_GeneType(t *testing.T) {
	cgl := CancerGeneList{
		"TP53": &Annotation{HugoSymbol: "TP53", GeneType: "TSG"},
	}
	assert.True(t, cgl.IsCancerGene("TP53"))
	assert.False(t, cgl.IsCancerGene("UNKNOWN"))
	assert.Equal(t, "TSG", cgl.GeneType("TP53"))
	assert.Equal(t, "", cgl.GeneType("UNKNOWN"))
}
