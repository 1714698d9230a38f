// Package oncokb loads the OncoKB cancer gene list used to label matched
// genes as oncogenes or tumor suppressors.
package oncokb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Gene types as written in cancerGeneList.tsv.
const (
	GeneTypeOncogene = "ONCOGENE"
	GeneTypeTSG      = "TSG"
)

// Annotation holds OncoKB gene-level annotations.
type Annotation struct {
	HugoSymbol string
	GeneType   string // "ONCOGENE", "TSG", or "ONCOGENE,TSG"
	Aliases    []string
}

// IsOncogene reports whether the gene is annotated as an oncogene.
func (a *Annotation) IsOncogene() bool {
	return hasType(a.GeneType, GeneTypeOncogene)
}

// IsTSG reports whether the gene is annotated as a tumor suppressor.
func (a *Annotation) IsTSG() bool {
	return hasType(a.GeneType, GeneTypeTSG)
}

func hasType(geneType, want string) bool {
	for _, t := range strings.Split(geneType, ",") {
		if strings.TrimSpace(t) == want {
			return true
		}
	}
	return false
}

// CancerGeneList maps Hugo Symbol, and any listed alias, to Annotation.
type CancerGeneList map[string]*Annotation

// IsCancerGene returns true if the gene is in the cancer gene list.
func (c CancerGeneList) IsCancerGene(gene string) bool {
	_, ok := c[gene]
	return ok
}

// GeneType returns the gene type of gene, or "" when it is not listed.
func (c CancerGeneList) GeneType(gene string) string {
	if a, ok := c[gene]; ok {
		return a.GeneType
	}
	return ""
}

// LoadCancerGeneList loads an OncoKB cancerGeneList.tsv file.
func LoadCancerGeneList(path string) (CancerGeneList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cancer gene list: %w", err)
	}
	defer f.Close()
	return ParseCancerGeneList(f)
}

// ParseCancerGeneList reads a cancer gene list. The header must have
// "Hugo Symbol" and "Gene Type" columns; "Gene Aliases" is optional.
// Canonical symbols take precedence over aliases that collide with them.
func ParseCancerGeneList(r io.Reader) (CancerGeneList, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading cancer gene list: %w", err)
		}
		return nil, errors.New("cancer gene list: empty file")
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")

	hugoIdx, geneTypeIdx, aliasIdx := -1, -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Hugo Symbol":
			hugoIdx = i
		case "Gene Type":
			geneTypeIdx = i
		case "Gene Aliases":
			aliasIdx = i
		}
	}
	if hugoIdx < 0 {
		return nil, errors.New("cancer gene list: missing 'Hugo Symbol' column")
	}
	if geneTypeIdx < 0 {
		return nil, errors.New("cancer gene list: missing 'Gene Type' column")
	}

	cgl := make(CancerGeneList)
	var aliased []*Annotation
	for scanner.Scan() {
		fields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(fields) <= hugoIdx || len(fields) <= geneTypeIdx {
			continue
		}
		hugo := strings.TrimSpace(fields[hugoIdx])
		if hugo == "" {
			continue
		}
		a := &Annotation{
			HugoSymbol: hugo,
			GeneType:   strings.TrimSpace(fields[geneTypeIdx]),
		}
		if aliasIdx >= 0 && aliasIdx < len(fields) {
			for _, alias := range strings.Split(fields[aliasIdx], ",") {
				if alias = strings.TrimSpace(alias); alias != "" {
					a.Aliases = append(a.Aliases, alias)
				}
			}
		}
		cgl[hugo] = a
		if len(a.Aliases) > 0 {
			aliased = append(aliased, a)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cancer gene list: %w", err)
	}

	for _, a := range aliased {
		for _, alias := range a.Aliases {
			if _, ok := cgl[alias]; !ok {
				cgl[alias] = a
			}
		}
	}
	return cgl, nil
}
