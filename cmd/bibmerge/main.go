// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibmerge CLI, which combines
// Scopus and Web of Science exports into one dataset deduplicated by DOI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibmerge/internal/pipeline"
	"github.com/pdiddy/bibmerge/internal/schema"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd merges the two exports when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "bibmerge",
	Short: "Combine Scopus and Web of Science exports by DOI",
	Long: `bibmerge reads a Scopus CSV export and a Web of Science tab-delimited
export, renames both to a shared set of field tags (DI, AU, TI, SO, ...),
concatenates them, and keeps the first record for every DOI. Scopus records
win over Web of Science records for the same DOI.

Records without a DOI are treated as one group and only the first is kept,
unless --distinct-missing-keys is set.

Source schemas are declarative YAML. Use "bibmerge schemas" to print the
built-in configuration and --schemas to supply your own.`,
	SilenceUsage: true,
	RunE:         runMerge,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./bibmerge.yaml or ~/.config/bibmerge/config.yaml)")
	pf.String("schemas", "", "schema configuration file (default: built-in Scopus and Web of Science schemas)")
	pf.String("profile", types.DefaultProfile, "canonical column profile: basic or extended")

	f := rootCmd.Flags()
	f.StringP("scopus", "s", types.DefaultPrimaryPath, "Scopus CSV file path")
	f.StringP("wos", "w", types.DefaultSecondaryPath, "Web of Science file path")
	f.StringP("output", "o", types.DefaultOutputPath, "output file path")
	f.String("primary-source", types.DefaultPrimarySource, "schema ID used to read the --scopus file")
	f.String("secondary-source", types.DefaultSecondarySource, "schema ID used to read the --wos file")
	f.StringSlice("key", []string{types.DefaultKeyColumn}, "canonical column(s) identifying a record")
	f.String("normalize-keys", string(types.NormalizeNone), "key comparison: none or doi (strip resolver prefix, ignore case)")
	f.Bool("distinct-missing-keys", false, "keep every record with an empty key instead of only the first")
	f.String("sqlite", "", "also write the merged records to this SQLite database")
	f.String("csl", "", "also write the merged records as CSL-YAML to this file")
	f.String("report", "", "write a YAML run report to this file")

	for _, name := range []string{"schemas", "profile"} {
		viper.BindPFlag(name, pf.Lookup(name))
	}
	f.VisitAll(func(fl *pflag.Flag) {
		viper.BindPFlag(fl.Name, fl)
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibmerge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bibmerge"))
		}
	}

	viper.SetEnvPrefix("BIBMERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// mergeConfig assembles the run configuration from flags, environment, and
// config file, in viper's precedence order.
func mergeConfig() types.MergeConfig {
	return types.MergeConfig{
		Primary: types.InputConfig{
			Path:   viper.GetString("scopus"),
			Source: viper.GetString("primary-source"),
		},
		Secondary: types.InputConfig{
			Path:   viper.GetString("wos"),
			Source: viper.GetString("secondary-source"),
		},
		OutputPath: viper.GetString("output"),
		Profile:    viper.GetString("profile"),
		Dedupe: types.DedupeConfig{
			KeyColumns:      viper.GetStringSlice("key"),
			Normalization:   types.KeyNormalization(viper.GetString("normalize-keys")),
			DistinctMissing: viper.GetBool("distinct-missing-keys"),
		},
		Exports: types.ExportConfig{
			SQLitePath: viper.GetString("sqlite"),
			CSLPath:    viper.GetString("csl"),
			ReportPath: viper.GetString("report"),
		},
	}
}

func runMerge(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments %v: use --scopus, --wos, and --output", args)
	}

	reg, err := schema.Load(viper.GetString("schemas"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	summary, err := pipeline.Run(context.Background(), mergeConfig(), reg, out)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSummary(summary))
	fmt.Fprintln(out, "Done!")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
