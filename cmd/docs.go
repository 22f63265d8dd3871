package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate documentation",
	Long: `Generate reference documentation for ttlpanel.

Man pages go in section 8: the commands change a kernel network
parameter and are meant for the device administrator. The completion
format writes bash, zsh and fish scripts instead of pages.`,
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   generateDocs,
}

var (
	docsOutputDir string
	docsFormat    string
)

// docFormats lists what writeDocs understands, in help order
var docFormats = []string{"man", "md", "rest", "yaml", "completion"}

func init() {
	rootCmd.AddCommand(docsCmd)

	docsCmd.Flags().StringVar(&docsOutputDir, "output", "./docs", "Output directory for documentation")
	docsCmd.Flags().StringVar(&docsFormat, "format", "man", fmt.Sprintf("Documentation format: %v", docFormats))
}

func generateDocs(cmd *cobra.Command, args []string) error {
	if err := writeDocs(cmd.Root(), docsFormat, docsOutputDir); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s documentation to %s\n", docsFormat, docsOutputDir)
	return nil
}

func writeDocs(root *cobra.Command, format, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root.DisableAutoGenTag = true

	switch format {
	case "man":
		header := &doc.GenManHeader{
			Title:   "TTLPANEL",
			Section: "8",
			Source:  "ttlpanel " + root.Version,
			Manual:  "TTL Changer Administration",
		}
		return doc.GenManTree(root, header, dir)
	case "md":
		return doc.GenMarkdownTree(root, dir)
	case "rest":
		return doc.GenReSTTree(root, dir)
	case "yaml":
		return doc.GenYamlTree(root, dir)
	case "completion":
		name := root.Name()
		if err := root.GenBashCompletionFileV2(filepath.Join(dir, name+".bash"), true); err != nil {
			return err
		}
		if err := root.GenZshCompletionFile(filepath.Join(dir, "_"+name)); err != nil {
			return err
		}
		return root.GenFishCompletionFile(filepath.Join(dir, name+".fish"), true)
	default:
		return fmt.Errorf("unsupported format: %s (supported: %v)", format, docFormats)
	}
}
