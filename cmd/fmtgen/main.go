// Command fmtgen renders the templates described by a YAML/JSON
// document (spec.md §1) to files on disk. Exit codes follow spec.md
// §6: 0 on success, 1 if the document argument is missing, can't be
// decoded, or any template failed to render.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/juju/loggo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HritikDutta/fmtlang/driver"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "fmtgen <document>",
	Short: "Render fmtlang templates described by a YAML/JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.BindPFlag("debug", cmd.Flags().Lookup("debug"))
		viper.BindEnv("debug", "FMTGEN_DEBUG")
		debug = viper.GetBool("debug")
		if debug {
			loggo.ConfigureLoggers("fmtgen=TRACE")
		}

		stats, err := driver.Run(args[0], driver.LoadText, driver.WriteText)
		if err != nil {
			printErr(err)
			os.Exit(1)
		}
		if stats.TemplatesFailed > 0 {
			printErr(fmt.Errorf("%d/%d templates failed to render (%d/%d passes failed)",
				stats.TemplatesFailed, stats.Templates, stats.PassesFailed, stats.Passes))
			os.Exit(1)
		}

		fmt.Printf("rendered %d template(s), %d pass(es)\n", stats.Templates, stats.Passes)
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolVar(&debug, "debug", false, "raise driver log verbosity (line/column diagnostics still require the fmtlang_debug build tag)")
}

func printErr(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "fmtgen: %v\n", err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
