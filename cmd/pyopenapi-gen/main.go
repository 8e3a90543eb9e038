package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindhiveoy/pyopenapi-gen/internal/cli"
)

func main() {
	root := &cobra.Command{
		Use:   "pyopenapi-gen",
		Short: "Generate Python model packages from OpenAPI specs",
	}

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newValidateCmd())

	if err := root.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	var p cli.RunGenerateParams

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate client model packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			warnings, err := cli.RunGenerate(p)
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to pyopenapi-gen.yaml config")
	cmd.Flags().StringVar(&p.SingleClient, "client", "", "Generate only the named client from config")
	cmd.Flags().BoolVarP(&p.Verbose, "verbose", "v", false, "Debug logging")
	cmd.Flags().BoolVar(&p.Validate, "validate", false, "Validate the document and merge findings into warnings")
	cmd.Flags().IntVar(&p.MaxDepth, "max-depth", 0, "Maximum schema recursion depth (default 100)")
	cmd.Flags().IntVar(&p.MaxCycles, "max-cycles", 0, "Cycle diagnostics budget, 0 disables")
	cmd.Flags().BoolVar(&p.DebugCycles, "debug-cycles", false, "Log schema cycle diagnostics")
	// Fallback single-client flags
	cmd.Flags().StringVar(&p.Fallback.Spec, "input", "", "OpenAPI spec file or URL (yaml/json)")
	cmd.Flags().StringVar(&p.Fallback.Type, "type", "", "Client type (e.g., python)")
	cmd.Flags().StringVar(&p.Fallback.OutDir, "out", "", "Output directory")
	cmd.Flags().StringVar(&p.Fallback.PackageName, "package-name", "", "Python package name")
	cmd.Flags().StringVar(&p.Fallback.CorePackage, "core-package", "", "Runtime package imported by generated code")
	cmd.Flags().StringVar(&p.Fallback.Name, "client-name", "", "Client name")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an OpenAPI spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			findings, err := cli.RunValidate(input)
			if err != nil {
				return err
			}
			for _, f := range findings {
				fmt.Fprintln(cmd.ErrOrStderr(), f)
			}
			if len(findings) > 0 {
				return fmt.Errorf("%s failed validation with %d finding(s)", input, len(findings))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", input)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "OpenAPI spec file (yaml/json)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
