package contentguard

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/files"
	"github.com/varalys/contentguard/internal/ignore"
)

func init() {
	var root string
	cmd := &cobra.Command{
		Use:   "ignore <pattern>...",
		Short: "Add patterns to " + ignore.FileName,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			for _, pattern := range args {
				if err := files.AppendIgnore(abs, pattern); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", filepath.Join(abs, ignore.FileName))
			return nil
		},
	}
	cmd.Flags().StringVarP(&root, "path", "p", ".", "scan root holding the ignore file")
	rootCmd.AddCommand(cmd)
}
