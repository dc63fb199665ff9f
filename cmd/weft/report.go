package main

import (
	"fmt"
	"io"

	"github.com/chazu/weft/pkg/codegen"
	"github.com/chazu/weft/pkg/model"
	"github.com/chazu/weft/pkg/runtime"
	"github.com/chazu/weft/pkg/weave"
)

// report prints which woven members of t were intercepted.
func report(w io.Writer, t *model.Type, chains []*weave.Chain, result *codegen.Result) {
	fmt.Fprintf(w, "weft: %s\n", t.QualifiedName())

	skipped := make(map[runtime.Key]string, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped[runtime.Key{Owner: t.QualifiedName(), Member: s.Member, Kind: s.Kind}] = s.Reason
	}
	for _, c := range chains {
		if reason, ok := skipped[c.Key]; ok {
			fmt.Fprintf(w, "  ⚠ %s %s - skipped: %s\n", c.Key.Kind, c.Key.Member, reason)
		} else {
			fmt.Fprintf(w, "  ✓ %s %s - %d advice\n", c.Key.Kind, c.Key.Member, len(c.Advice))
		}
	}
	fmt.Fprintf(w, "Intercepted %d/%d join points.\n", len(chains)-len(result.Skipped), len(chains))

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	fmt.Fprintln(w)
}
