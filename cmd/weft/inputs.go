package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/weft/pkg/aspect"
	"github.com/chazu/weft/pkg/model"
	"github.com/chazu/weft/pkg/model/srcmodel"
	"github.com/chazu/weft/pkg/store"
	"github.com/chazu/weft/pkg/weave"
)

// inputs are the flags naming what to weave.
type inputs struct {
	modelPath string
	srcDir    string
	patterns  []string
	aspects   []string
	noCache   bool
}

func (in *inputs) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&in.modelPath, "model", "m", "", "JSON program model")
	cmd.Flags().StringVar(&in.srcDir, "src", "", "Go module directory to model from source")
	cmd.Flags().StringSliceVar(&in.patterns, "pattern", nil, "Package patterns under --src (default ./...)")
	cmd.Flags().StringSliceVarP(&in.aspects, "aspects", "a", nil, "Aspect declaration files (YAML)")
	cmd.Flags().BoolVar(&in.noCache, "no-cache", false, "Ignore the report cache")
}

// woven is the outcome of loading and weaving the inputs.
type woven struct {
	source   model.Source
	types    []*model.Type
	report   *weave.Report
	bindings []aspect.Binding
	cached   bool
}

// loadSource reads the structural model and returns it with the bytes that
// identify it in the report cache.
func (a *app) loadSource(in *inputs) (model.Source, []*model.Type, []byte, error) {
	switch {
	case in.modelPath != "" && in.srcDir != "":
		return nil, nil, nil, errors.New("--model and --src are mutually exclusive")

	case in.modelPath != "":
		data, err := os.ReadFile(in.modelPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("reading model: %w", err)
		}
		prog, err := model.DecodeBytes(data)
		if err != nil {
			return nil, nil, nil, err
		}
		return prog, prog.TypeList, data, nil

	case in.srcDir != "":
		src, err := srcmodel.Load(in.srcDir, in.patterns...)
		if err != nil {
			return nil, nil, nil, err
		}
		types, err := src.Types()
		if err != nil {
			return nil, nil, nil, err
		}
		data, err := json.Marshal(types)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("encoding model: %w", err)
		}
		return src, types, data, nil
	}
	return nil, nil, nil, errors.New("one of --model or --src is required")
}

// weave registers the aspect files and weaves them against the model,
// reusing a cached report for identical inputs.
func (a *app) weave(in *inputs) (*woven, error) {
	src, types, modelData, err := a.loadSource(in)
	if err != nil {
		return nil, err
	}

	digestInputs := [][]byte{modelData}
	reg := aspect.NewRegistry(aspect.WithLogger(a.logger))
	for _, path := range in.aspects {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading aspects: %w", err)
		}
		digestInputs = append(digestInputs, data)

		aspects, err := aspect.LoadFile(path, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, err := reg.RegisterAll(aspects); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	out := &woven{source: src, types: types, bindings: reg.Bindings()}

	var cache *store.Store
	digest := store.InputDigest(digestInputs...)
	if a.cfg.CachePath != "" && !in.noCache {
		cache, err = store.New(&store.Config{DBPath: a.cfg.CachePath, Logger: a.logger})
		if err != nil {
			return nil, err
		}
		defer cache.Close()

		report, err := cache.Get(digest)
		switch {
		case err == nil:
			a.logger.Info("using cached report", zap.String("digest", digest), zap.Stringer("id", report.ID))
			out.report, out.cached = report, true
		case !errors.Is(err, store.ErrReportNotFound):
			a.logger.Warn("report cache unavailable", zap.Error(err))
			cache = nil
		}
	}

	if out.report == nil {
		out.report, err = weave.Weave(src, reg, weave.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		if cache != nil {
			if err := cache.Put(digest, out.report); err != nil {
				a.logger.Warn("failed to cache report", zap.Error(err))
			}
		}
	}

	if unmatched := out.report.Unmatched(out.bindings); a.cfg.Strict && len(unmatched) > 0 {
		return nil, fmt.Errorf("--strict: advice %s matched no join point", unmatched[0])
	}
	return out, nil
}
