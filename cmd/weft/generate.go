package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/weft/pkg/codegen"
	"github.com/chazu/weft/pkg/model"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		in          inputs
		typeFilter  []string
		mode        string
		packageName string
		packagePath string
		outDir      string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate proxies for every woven type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mode") {
				mode = a.cfg.ProxyMode
			}
			proxyMode, err := codegen.ParseMode(mode)
			if err != nil {
				return err
			}
			if packageName == "" {
				packageName = a.cfg.PackageName
			}
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}

			w, err := a.weave(&in)
			if err != nil {
				return err
			}

			byName := make(map[string]*model.Type, len(w.types))
			for _, t := range w.types {
				byName[t.QualifiedName()] = t
			}

			stderr := cmd.ErrOrStderr()
			generated := 0
			for _, owner := range w.report.Owners() {
				t, ok := byName[owner]
				if !ok || !selected(t, typeFilter) {
					continue
				}

				result, err := codegen.Generate(t, w.report, codegen.Options{
					Mode:        proxyMode,
					PackageName: packageName,
					PackagePath: packagePath,
					Strict:      a.cfg.Strict,
				})
				if result != nil {
					report(stderr, t, w.report.ChainsFor(owner), result)
				}
				if err != nil {
					if errors.Is(err, codegen.ErrSkipped) {
						return fmt.Errorf("--strict mode enabled, refusing to generate with skipped members: %w", err)
					}
					return err
				}

				if dryRun {
					fmt.Fprintf(stderr, "Dry run - would generate %d bytes of Go code for %s\n", len(result.Code), owner)
					continue
				}
				path := filepath.Join(outDir, strings.ToLower(t.Name)+"_weft.go")
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("creating output directory: %w", err)
				}
				if err := os.WriteFile(path, []byte(result.Code), 0o644); err != nil {
					return fmt.Errorf("writing proxy: %w", err)
				}
				a.logger.Info("proxy generated", zap.String("type", owner), zap.String("path", path))
				generated++
			}

			if !dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Generated %d proxies in %s\n", generated, outDir)
			}
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringSliceVarP(&typeFilter, "type", "t", nil, "Only generate these types (short or qualified names)")
	cmd.Flags().StringVar(&mode, "mode", "override", "Proxy mode: override (embed the original) or copy (re-declare every method)")
	cmd.Flags().StringVar(&packageName, "package", "", "Generated package name (default <package>proxy)")
	cmd.Flags().StringVar(&packagePath, "package-path", "", "Import path of the generated package")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be generated without writing files")
	return cmd
}

func selected(t *model.Type, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == t.Name || f == t.QualifiedName() {
			return true
		}
	}
	return false
}
