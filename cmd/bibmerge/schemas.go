package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibmerge/internal/schema"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Print or check source schema configuration",
	Long: `Schemas prints the effective schema configuration as YAML: the built-in
Scopus and Web of Science schemas, or the file given with --schemas. Save
the output, edit it, and pass it back with --schemas to add a source.

Use --check to validate a schema file without running a merge, and --mapping
to show how each source's columns map to canonical names under --profile.`,
	RunE: runSchemas,
}

func init() {
	schemasCmd.Flags().String("check", "", "validate this schema file and exit")
	schemasCmd.Flags().Bool("mapping", false, "show column mappings for --profile as a table")

	rootCmd.AddCommand(schemasCmd)
}

func runSchemas(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if check, _ := cmd.Flags().GetString("check"); check != "" {
		reg, err := schema.Load(check)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: ok (profiles: %v, sources: %v)\n", check, reg.Profiles(), reg.Sources())
		return nil
	}

	reg, err := schema.Load(viper.GetString("schemas"))
	if err != nil {
		return err
	}

	if mapping, _ := cmd.Flags().GetBool("mapping"); mapping {
		profile := viper.GetString("profile")
		for _, id := range reg.Sources() {
			src, err := reg.Source(id, profile)
			if err != nil {
				return err
			}
			rows := make([][]string, len(src.Fields))
			for i, f := range src.Fields {
				rows[i] = []string{f.Source, f.Canonical}
			}
			fmt.Fprintf(out, "%s (%s, delimiter %q)\n", src.Label(), id, src.Delimiter)
			fmt.Fprintln(out, renderTable([]string{"Column", "Canonical"}, rows, nil))
		}
		return nil
	}

	data, err := reg.Marshal()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
