package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/internal/service"
	"pdf-chat-go/pkg/log"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf|dir>",
	Short: "Index local PDFs with the configured backends",
	Long: `Runs the upload pipeline for one PDF, or for every PDF under a directory,
and prints "<pdf_id>\t<path>" per indexed file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkIngestConfig(cfg); err != nil {
			return err
		}
		a, err := buildApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		indexed, failed := ingest(cmd.Context(), a.documents, args[0], cmd.OutOrStdout())
		log.Infof("ingest finished, indexed: %d, failed: %d", indexed, failed)
		if indexed == 0 && failed > 0 {
			return fmt.Errorf("no file could be indexed from %s", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// checkIngestConfig rejects backends that would forget the ingested documents
// when this process exits, leaving ids a running server answers with 404.
func checkIngestConfig(cfg *config.Config) error {
	if cfg.Registry.Backend != "redis" {
		return fmt.Errorf("ingest needs registry.backend: redis, the %q registry does not outlive this process", cfg.Registry.Backend)
	}
	if cfg.VectorIndex.Backend == "memory" {
		return errors.New("ingest needs a persistent vector_index.backend (sql or elasticsearch), not memory")
	}
	return nil
}

// collectPDFs returns root itself when it is a file, or every *.pdf below it.
func collectPDFs(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warnf("ingest: skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() && service.IsPDFName(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// ingest uploads every file found under root and reports one line per success.
// A failing file is logged and does not stop the walk.
func ingest(ctx context.Context, docs service.DocumentService, root string, out io.Writer) (indexed, failed int) {
	paths, err := collectPDFs(root)
	if err != nil {
		log.Errorf("ingest: cannot read %s: %v", root, err)
		return 0, 1
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("ingest: failed to read %s: %v", path, err)
			failed++
			continue
		}
		doc, err := docs.Upload(ctx, filepath.Base(path), content)
		if err != nil {
			log.Warnf("ingest: failed to index %s: %v", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", doc.ID, path)
		indexed++
	}
	return indexed, failed
}
