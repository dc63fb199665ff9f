// Package codegen generates Go proxies for woven types.
//
// For each owner type with woven join points it emits one file containing
// the type's manifest, a runtime.Site per join point, the proxy type and an
// Install function that loads the manifest into a runtime.Table.
package codegen

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/weft/pkg/model"
	"github.com/chazu/weft/pkg/runtime"
	"github.com/chazu/weft/pkg/weave"
)

const runtimePath = "github.com/chazu/weft/pkg/runtime"

// ErrNotWoven is returned for a type without woven join points.
var ErrNotWoven = errors.New("type has no woven join points")

// ErrSkipped is returned in strict mode when a woven member cannot be
// intercepted.
var ErrSkipped = errors.New("woven member cannot be intercepted")

// Mode selects how the proxy relates to the wrapped type.
type Mode int

const (
	// Override embeds the original and overrides only woven methods.
	Override Mode = iota
	// Copy holds the original privately and re-declares every method,
	// delegating the ones that are not woven.
	Copy
)

func (m Mode) String() string {
	if m == Copy {
		return "copy"
	}
	return "override"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "override", "":
		return Override, nil
	case "copy":
		return Copy, nil
	}
	return Override, fmt.Errorf("unknown proxy mode %q (want override or copy)", s)
}

// Options control generation.
type Options struct {
	Mode Mode

	// PackageName of the generated file. Defaults to the wrapped type's
	// package name with a "proxy" suffix.
	PackageName string

	// PackagePath is the import path of the generated file. When it equals
	// the wrapped type's package, unexported members can be intercepted.
	PackagePath string

	// Strict turns every skipped member into an error.
	Strict bool
}

// Result contains the generated code and any warnings.
type Result struct {
	Code     string
	Warnings []string
	Skipped  []Skipped
}

// Skipped records a woven member that couldn't be intercepted.
type Skipped struct {
	Member string
	Kind   model.Kind
	Reason string
}

func (s Skipped) String() string {
	return fmt.Sprintf("%s %s: %s", s.Kind, s.Member, s.Reason)
}

// Generate produces the proxy for t from the woven chains in report.
func Generate(t *model.Type, report *weave.Report, opts Options) (*Result, error) {
	owner := t.QualifiedName()
	if len(report.ChainsFor(owner)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotWoven, owner)
	}
	if opts.PackageName == "" {
		opts.PackageName = t.PackageName() + "proxy"
		if t.Package == "" {
			opts.PackageName = "proxy"
		}
	}

	g := &generator{
		t:      t,
		report: report,
		opts:   opts,
		owner:  owner,
		local:  t.Package == "" || t.Package == opts.PackagePath,
		lower:  uncapitalize(t.Name),
		proxy:  t.Name + "Proxy",
	}
	g.classify()

	if opts.Strict && len(g.skipped) > 0 {
		return &Result{Warnings: g.warnings, Skipped: g.skipped},
			fmt.Errorf("%w: %s: %s", ErrSkipped, owner, g.skipped[0])
	}

	code, err := g.render()
	if err != nil {
		return nil, fmt.Errorf("rendering proxy for %s: %w", owner, err)
	}
	return &Result{Code: code, Warnings: g.warnings, Skipped: g.skipped}, nil
}

type generator struct {
	t      *model.Type
	report *weave.Report
	opts   Options
	owner  string
	local  bool   // Generated into the wrapped type's own package
	lower  string // Prefix for package-level identifiers
	proxy  string // Proxy type name

	woven     []*model.Member // Intercepted, in declaration order
	delegated []*model.Member // Carried over unchanged (Copy mode)

	warnings []string
	skipped  []Skipped
}

// classify splits the type's members into woven, delegated and skipped.
func (g *generator) classify() {
	for i := range g.t.Members {
		m := &g.t.Members[i]
		key := runtime.KeyOf(model.Element{Owner: g.t, Member: m})
		_, woven := g.report.Chain(key)
		accessible := g.local || isExported(m.Name)

		switch {
		case woven && m.Kind == model.StaticInit:
			g.skip(m, "static initializers run before a proxy can be installed")
		case woven && !accessible:
			g.skip(m, "unexported member of a foreign package")
		case woven && m.Kind == model.Property && g.t.IsInterface:
			g.skip(m, "interfaces have no fields")
		case woven:
			g.woven = append(g.woven, m)
		case g.opts.Mode != Copy || m.Kind == model.StaticInit:
			// Promoted by embedding, or nothing to carry over.
		case !accessible:
			g.warnings = append(g.warnings, fmt.Sprintf("%s %s is unexported and was not carried over", m.Kind, m.Name))
		default:
			g.delegated = append(g.delegated, m)
		}
	}
}

func (g *generator) skip(m *model.Member, reason string) {
	g.skipped = append(g.skipped, Skipped{Member: m.Name, Kind: m.Kind, Reason: reason})
}

func (g *generator) render() (string, error) {
	var f *jen.File
	if g.opts.PackagePath != "" {
		f = jen.NewFilePathName(g.opts.PackagePath, g.opts.PackageName)
	} else {
		f = jen.NewFile(g.opts.PackageName)
	}
	f.HeaderComment("Code generated by weft. DO NOT EDIT.")
	f.ImportName("context", "context")
	f.ImportName(runtimePath, "runtime")
	if !g.local {
		f.ImportName(g.t.Package, g.t.PackageName())
	}

	manifest, err := g.report.Manifest(g.owner).Encode()
	if err != nil {
		return "", err
	}
	f.Const().Id(g.manifestName()).Op("=").Lit(string(manifest))
	f.Line()

	sites := make([]jen.Code, 0, len(g.woven))
	for _, m := range g.woven {
		key := runtime.KeyOf(model.Element{Owner: g.t, Member: m})
		sites = append(sites, jen.Id(g.siteName(m)).Op("=").Qual(runtimePath, "NewSite").Call(
			jen.Qual(runtimePath, "MustParseKey").Call(jen.Lit(key.String())),
			jen.Id(g.terminalName(m)),
		))
	}
	f.Var().Defs(sites...)
	f.Line()

	g.generateProxyType(f)

	for _, m := range g.woven {
		g.generateTerminal(f, m)
		switch m.Kind {
		case model.Method:
			g.generateMethod(f, m)
		case model.StaticMethod:
			g.generateStatic(f, m)
		case model.Property:
			g.generateAccessors(f, m)
		}
	}

	for _, m := range g.delegated {
		g.generateDelegate(f, m)
	}

	g.generateInstall(f)

	buf := &bytes.Buffer{}
	if err := f.Render(buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// target returns a reference to the wrapped type.
func (g *generator) target() *jen.Statement {
	if g.t.Package == "" {
		return jen.Id(g.t.Name)
	}
	return jen.Qual(g.t.Package, g.t.Name)
}

// targetPointer is the type a receiver is asserted to in terminals.
func (g *generator) targetPointer() *jen.Statement {
	if g.t.IsInterface {
		return g.target()
	}
	return jen.Op("*").Add(g.target())
}

// receiver is the expression for the wrapped value inside proxy methods.
func (g *generator) receiver() *jen.Statement {
	if g.opts.Mode == Copy {
		return jen.Id("p").Dot("impl")
	}
	return jen.Id("p").Dot(g.t.Name)
}

// static returns a reference to a package-level function of the wrapped package.
func (g *generator) static(name string) *jen.Statement {
	if g.t.Package == "" {
		return jen.Id(name)
	}
	return jen.Qual(g.t.Package, name)
}

func (g *generator) manifestName() string { return g.lower + "Manifest" }

func (g *generator) siteName(m *model.Member) string {
	if m.Kind == model.Property {
		return g.lower + capitalize(m.Name) + "FieldSite"
	}
	return g.lower + capitalize(m.Name) + "Site"
}

func (g *generator) terminalName(m *model.Member) string {
	if m.Kind == model.Property {
		return g.lower + capitalize(m.Name) + "FieldTerminal"
	}
	return g.lower + capitalize(m.Name) + "Terminal"
}

func (g *generator) generateProxyType(f *jen.File) {
	ctor := "New" + capitalize(g.proxy)

	if g.opts.Mode == Copy {
		f.Comment(fmt.Sprintf("%s carries over the methods of %s, dispatching woven ones through their join points.", g.proxy, g.t.Name))
		f.Type().Id(g.proxy).Struct(jen.Id("impl").Add(g.targetPointer()))
		f.Line()
		f.Comment(fmt.Sprintf("%s wraps impl.", ctor))
		f.Func().Id(ctor).Params(jen.Id("impl").Add(g.targetPointer())).Op("*").Id(g.proxy).Block(
			jen.Return(jen.Op("&").Id(g.proxy).Values(jen.Id("impl").Op(":").Id("impl"))),
		)
		f.Line()
		return
	}

	f.Comment(fmt.Sprintf("%s intercepts the woven members of %s.", g.proxy, g.t.Name))
	f.Type().Id(g.proxy).Struct(g.targetPointer())
	f.Line()
	f.Comment(fmt.Sprintf("%s wraps target.", ctor))
	f.Func().Id(ctor).Params(jen.Id("target").Add(g.targetPointer())).Op("*").Id(g.proxy).Block(
		jen.Return(jen.Op("&").Id(g.proxy).Values(jen.Id(g.t.Name).Op(":").Id("target"))),
	)
	f.Line()
}

func (g *generator) generateInstall(f *jen.File) {
	name := "Install" + capitalize(g.proxy)

	body := []jen.Code{
		jen.If(
			jen.Err().Op(":=").Id("t").Dot("InstallJSON").Call(jen.Index().Byte().Parens(jen.Id(g.manifestName())), jen.Id("r")),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Err())),
	}
	for _, m := range g.woven {
		body = append(body, jen.Id(g.siteName(m)).Dot("Bind").Call(jen.Id("t")))
	}
	body = append(body, jen.Return(jen.Nil()))

	f.Comment(fmt.Sprintf("%s loads the join points of %s into t and binds the proxy's call sites to it.", name, g.t.Name))
	f.Func().Id(name).Params(
		jen.Id("t").Op("*").Qual(runtimePath, "Table"),
		jen.Id("r").Qual(runtimePath, "Resolver"),
	).Error().Block(body...)
}
