package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-serve/internal/cache"
)

// GENCODE FTP URLs
const (
	gencodeBaseURL = "https://ftp.ebi.ac.uk/pub/databases/gencode/Gencode_human/release_46"
	gencodeVersion = "v46"
)

// getGENCODEURLs returns the GTF and genome FASTA URLs for the given assembly.
func getGENCODEURLs(assembly string) (gtfURL, fastaURL string) {
	if strings.EqualFold(assembly, "GRCh37") {
		gtfURL = fmt.Sprintf("%s/GRCh37_mapping/gencode.%slift37.basic.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
		fastaURL = fmt.Sprintf("%s/GRCh37_mapping/GRCh37.primary_assembly.genome.fa.gz", gencodeBaseURL)
		return
	}
	gtfURL = fmt.Sprintf("%s/gencode.%s.basic.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
	fastaURL = fmt.Sprintf("%s/GRCh38.primary_assembly.genome.fa.gz", gencodeBaseURL)
	return
}

func newDownloadCmd() *cobra.Command {
	var gtfOnly bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download GENCODE annotations, the reference genome and canonical overrides",
		Long: `Download the files vibe-serve needs to resolve events:
  - gencode.v46.basic.annotation.gtf.gz (transcript model)
  - GRCh38.primary_assembly.genome.fa.gz (reference genome, ~800MB)
  - Genome Nexus canonical transcript overrides

Files go to <data-dir>/<assembly>/ and are found automatically afterwards.`,
		Example: `  vibe-serve download
  vibe-serve download --assembly GRCh37
  vibe-serve download --data-dir /data/vibe-serve --gtf-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd.Context(), viper.GetString("assembly"), gtfOnly)
		},
	}

	cmd.Flags().BoolVar(&gtfOnly, "gtf-only", false, "Only download GTF annotations (skip the genome FASTA)")
	return cmd
}

func runDownload(ctx context.Context, assembly string, gtfOnly bool) error {
	destDir, err := dataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", destDir, err)
	}

	gtfURL, fastaURL := getGENCODEURLs(assembly)

	fmt.Printf("Downloading GENCODE %s files for %s...\n", gencodeVersion, assembly)
	fmt.Printf("Destination: %s\n\n", destDir)

	if err := downloadFile(ctx, gtfURL, filepath.Join(destDir, filepath.Base(gtfURL))); err != nil {
		return fmt.Errorf("download GTF: %w", err)
	}

	if !gtfOnly {
		if err := downloadFile(ctx, fastaURL, filepath.Join(destDir, filepath.Base(fastaURL))); err != nil {
			return fmt.Errorf("download FASTA: %w", err)
		}
	}

	// Non-fatal: events still resolve against GENCODE's own canonical flags.
	canonicalFile := filepath.Join(destDir, cache.CanonicalFileName)
	if _, err := os.Stat(canonicalFile); err != nil {
		fmt.Printf("  Downloading %s...\n", cache.CanonicalFileName)
		if err := cache.DownloadCanonicalOverrides(ctx, assembly, canonicalFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not download canonical transcript overrides: %v\n", err)
		}
	}

	fmt.Printf("\nDownload complete!\n")
	fmt.Printf("To extract known events, run:\n")
	fmt.Printf("  vibe-serve extract events.tsv --db known.duckdb\n")
	return nil
}

// downloadFile downloads a file from URL to the destination path with progress.
func downloadFile(ctx context.Context, url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(destPath))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Minute}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw := &progressWriter{total: resp.ContentLength, lastPrint: time.Now()}
	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("\n    Done: %s\n", formatSize(pw.downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			fmt.Printf("\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Printf("\r    Progress: %s  ", formatSize(pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// dataFiles are the resolved paths of the downloaded inputs. FASTA and
// Canonical are empty when absent.
type dataFiles struct {
	Dir       string
	GTF       string
	FASTA     string
	Canonical string
}

// findDataFiles looks for downloaded files in the data directory.
func findDataFiles(assembly string) (dataFiles, error) {
	dir, err := dataDir()
	if err != nil {
		return dataFiles{}, err
	}
	files := dataFiles{Dir: dir}

	gtfPattern := "gencode.v*.annotation.gtf.gz"
	fastaPattern := "GRCh38.primary_assembly.genome.fa*"
	if strings.EqualFold(assembly, "GRCh37") {
		gtfPattern = "gencode.v*lift37*.annotation.gtf.gz"
		fastaPattern = "GRCh37.primary_assembly.genome.fa*"
	}

	matches, _ := filepath.Glob(filepath.Join(dir, gtfPattern))
	if len(matches) == 0 {
		return files, fmt.Errorf("no GENCODE annotation for %s in %s (run: vibe-serve download --assembly %s)", assembly, dir, assembly)
	}
	files.GTF = matches[0]

	matches, _ = filepath.Glob(filepath.Join(dir, fastaPattern))
	for _, m := range matches {
		if !strings.HasSuffix(m, ".tmp") {
			files.FASTA = m
			break
		}
	}

	if p := filepath.Join(dir, cache.CanonicalFileName); fileExists(p) {
		files.Canonical = p
	}
	return files, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
