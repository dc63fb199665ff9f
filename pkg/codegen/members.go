package codegen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/weft/pkg/model"
)

type paramInfo struct {
	model.Parameter
	ctx bool // Leading context.Context, passed through rather than boxed
}

// params describes m's parameters and picks their local names.
func params(m *model.Member) ([]paramInfo, []string) {
	infos := make([]paramInfo, len(m.Params))
	for i, p := range m.Params {
		infos[i] = paramInfo{Parameter: p, ctx: i == 0 && isContext(p.Type)}
	}
	return infos, paramNames(infos)
}

// signature renders the parameter list of a generated function.
func signature(infos []paramInfo, names []string) []jen.Code {
	out := make([]jen.Code, len(infos))
	for i, p := range infos {
		if p.Variadic {
			out[i] = jen.Id(names[i]).Op("...").Add(typeCode(p.Type))
			continue
		}
		out[i] = jen.Id(names[i]).Add(typeCode(p.Type))
	}
	return out
}

// forward renders the arguments of a direct call to the wrapped member.
func forward(infos []paramInfo, names []string) []jen.Code {
	out := make([]jen.Code, len(infos))
	for i, p := range infos {
		out[i] = jen.Id(names[i])
		if p.Variadic {
			out[i] = jen.Id(names[i]).Op("...")
		}
	}
	return out
}

// boxed renders the argument slice passed to a join point. The context
// parameter, if any, travels separately.
func boxed(infos []paramInfo, names []string) jen.Code {
	var vals []jen.Code
	for i, p := range infos {
		if !p.ctx {
			vals = append(vals, jen.Id(names[i]))
		}
	}
	if len(vals) == 0 {
		return jen.Nil()
	}
	return jen.Index().Id("any").Values(vals...)
}

// contextArg renders the context a proxy passes to its join point.
func contextArg(infos []paramInfo, names []string) jen.Code {
	if len(infos) > 0 && infos[0].ctx {
		return jen.Id(names[0])
	}
	return jen.Qual("context", "Background").Call()
}

// values returns m's results without a trailing error.
func values(m *model.Member) []model.Parameter {
	if m.ReturnsError() {
		return m.Results[:len(m.Results)-1]
	}
	return m.Results
}

// resultTypes renders the result list of a generated function, or nil.
func resultTypes(results []model.Parameter) *jen.Statement {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return typeCode(results[0].Type)
	}
	types := make([]jen.Code, len(results))
	for i, r := range results {
		types[i] = typeCode(r.Type)
	}
	return jen.Params(types...)
}

func withResults(sig *jen.Statement, results []model.Parameter) *jen.Statement {
	if r := resultTypes(results); r != nil {
		return sig.Add(r)
	}
	return sig
}

func resultName(i int) string { return fmt.Sprintf("r%d", i) }

// staticName is the name of the generated function standing in for a static
// member. Inside the wrapped package the original name is taken.
func (g *generator) staticName(m *model.Member) string {
	if g.local {
		return g.proxy + capitalize(m.Name)
	}
	return m.Name
}

// generateTerminal emits the function a join point calls once its advice
// chain is exhausted.
func (g *generator) generateTerminal(f *jen.File, m *model.Member) {
	sig := jen.Func().Id(g.terminalName(m)).Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("receiver").Id("any"),
		jen.Id("args").Index().Id("any"),
	).Params(jen.Id("any"), jen.Error())

	if m.Kind == model.Property {
		f.Add(sig.Block(
			jen.Id("target").Op(":=").Id("receiver").Assert(g.targetPointer()),
			jen.If(jen.Len(jen.Id("args")).Op("==").Lit(0)).Block(
				jen.Return(jen.Id("target").Dot(m.Name), jen.Nil()),
			),
			jen.List(jen.Id("v"), jen.Id("_")).Op(":=").Id("args").Index(jen.Lit(0)).Assert(typeCode(m.Type)),
			jen.Id("target").Dot(m.Name).Op("=").Id("v"),
			jen.Return(jen.Nil(), jen.Nil()),
		))
		f.Line()
		return
	}

	infos, names := params(m)
	var body, callArgs []jen.Code
	idx := 0
	for i, p := range infos {
		if p.ctx {
			callArgs = append(callArgs, jen.Id("ctx"))
			continue
		}
		typ := typeCode(p.Type)
		if p.Variadic {
			typ = jen.Index().Add(typeCode(p.Type))
		}
		body = append(body, jen.List(jen.Id(names[i]), jen.Id("_")).Op(":=").Id("args").Index(jen.Lit(idx)).Assert(typ))
		idx++
		callArgs = append(callArgs, forward(infos[i:i+1], names[i:i+1])...)
	}

	var call *jen.Statement
	if m.Kind == model.StaticMethod {
		call = g.static(m.Name).Call(callArgs...)
	} else {
		call = jen.Id("receiver").Assert(g.targetPointer()).Dot(m.Name).Call(callArgs...)
	}

	vals := values(m)
	var lhs, ret []jen.Code
	for i := range vals {
		lhs = append(lhs, jen.Id(resultName(i)))
		ret = append(ret, jen.Id(resultName(i)))
	}
	if m.ReturnsError() {
		lhs = append(lhs, jen.Err())
	}
	if len(lhs) == 0 {
		body = append(body, call)
	} else {
		body = append(body, jen.List(lhs...).Op(":=").Add(call))
	}

	var value, errValue jen.Code = jen.Nil(), jen.Nil()
	switch len(ret) {
	case 0:
	case 1:
		value = ret[0]
	default:
		value = jen.Index().Id("any").Values(ret...)
	}
	if m.ReturnsError() {
		errValue = jen.Err()
	}
	body = append(body, jen.Return(value, errValue))

	f.Add(sig.Block(body...))
	f.Line()
}

// dispatch renders a proxy body that invokes site and unpacks its result
// into the member's declared results. Without an error result, a failed
// invocation panics.
func dispatch(site string, ctx, recv, args jen.Code, m *model.Member) []jen.Code {
	invoke := jen.Id(site).Dot("Invoke").Call(ctx, recv, args)
	vals := values(m)
	returnsErr := m.ReturnsError()

	if len(vals) == 0 {
		if returnsErr {
			return []jen.Code{
				jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(invoke),
				jen.Return(jen.Err()),
			}
		}
		return []jen.Code{
			jen.If(jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(invoke), jen.Err().Op("!=").Nil()).Block(
				jen.Panic(jen.Err()),
			),
		}
	}

	body := []jen.Code{jen.List(jen.Id("res"), jen.Err()).Op(":=").Add(invoke)}
	if !returnsErr {
		body = append(body, jen.If(jen.Err().Op("!=").Nil()).Block(jen.Panic(jen.Err())))
	}

	var ret []jen.Code
	if len(vals) == 1 {
		body = append(body, jen.List(jen.Id("r0"), jen.Id("_")).Op(":=").Id("res").Assert(typeCode(vals[0].Type)))
		ret = append(ret, jen.Id("r0"))
	} else {
		body = append(body, jen.Id("out").Op(":=").Qual(runtimePath, "Results").Call(jen.Id("res"), jen.Lit(len(vals))))
		for i, v := range vals {
			body = append(body, jen.List(jen.Id(resultName(i)), jen.Id("_")).Op(":=").Id("out").Index(jen.Lit(i)).Assert(typeCode(v.Type)))
			ret = append(ret, jen.Id(resultName(i)))
		}
	}
	if returnsErr {
		ret = append(ret, jen.Err())
	}
	return append(body, jen.Return(ret...))
}

func (g *generator) generateMethod(f *jen.File, m *model.Member) {
	infos, names := params(m)
	f.Comment(fmt.Sprintf("%s dispatches through its woven join point.", m.Name))
	sig := jen.Func().Params(jen.Id("p").Op("*").Id(g.proxy)).Id(m.Name).Params(signature(infos, names)...)
	f.Add(withResults(sig, m.Results).Block(
		dispatch(g.siteName(m), contextArg(infos, names), g.receiver(), boxed(infos, names), m)...,
	))
	f.Line()
}

func (g *generator) generateStatic(f *jen.File, m *model.Member) {
	infos, names := params(m)
	name := g.staticName(m)
	f.Comment(fmt.Sprintf("%s calls %s.%s through its woven join point.", name, g.t.PackageName(), m.Name))
	sig := jen.Func().Id(name).Params(signature(infos, names)...)
	f.Add(withResults(sig, m.Results).Block(
		dispatch(g.siteName(m), contextArg(infos, names), jen.Nil(), boxed(infos, names), m)...,
	))
	f.Line()
}

// generateAccessors emits a getter and a setter over a woven field. Both
// share the field's join point; the setter passes the new value as the
// only argument.
func (g *generator) generateAccessors(f *jen.File, m *model.Member) {
	getter, setter := capitalize(m.Name), "Set"+capitalize(m.Name)
	site := g.siteName(m)
	bg := jen.Qual("context", "Background").Call()

	f.Comment(fmt.Sprintf("%s reads the %s field through its woven join point.", getter, m.Name))
	f.Func().Params(jen.Id("p").Op("*").Id(g.proxy)).Id(getter).Params().Add(typeCode(m.Type)).Block(
		jen.List(jen.Id("res"), jen.Err()).Op(":=").Id(site).Dot("Invoke").Call(bg, g.receiver(), jen.Nil()),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Panic(jen.Err())),
		jen.List(jen.Id("v"), jen.Id("_")).Op(":=").Id("res").Assert(typeCode(m.Type)),
		jen.Return(jen.Id("v")),
	)
	f.Line()

	f.Comment(fmt.Sprintf("%s writes the %s field through its woven join point.", setter, m.Name))
	f.Func().Params(jen.Id("p").Op("*").Id(g.proxy)).Id(setter).Params(jen.Id("v").Add(typeCode(m.Type))).Block(
		jen.If(
			jen.List(jen.Id("_"), jen.Err()).Op(":=").Id(site).Dot("Invoke").Call(
				jen.Qual("context", "Background").Call(), g.receiver(), jen.Index().Id("any").Values(jen.Id("v")),
			),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Panic(jen.Err())),
	)
	f.Line()
}

// generateDelegate carries an unwoven member over to a Copy-mode proxy.
func (g *generator) generateDelegate(f *jen.File, m *model.Member) {
	recv := jen.Id("p").Op("*").Id(g.proxy)

	if m.Kind == model.Property {
		getter, setter := capitalize(m.Name), "Set"+capitalize(m.Name)
		f.Comment(fmt.Sprintf("%s reads the %s field of the wrapped %s.", getter, m.Name, g.t.Name))
		f.Func().Params(recv).Id(getter).Params().Add(typeCode(m.Type)).Block(
			jen.Return(jen.Id("p").Dot("impl").Dot(m.Name)),
		)
		f.Line()
		f.Comment(fmt.Sprintf("%s writes the %s field of the wrapped %s.", setter, m.Name, g.t.Name))
		f.Func().Params(jen.Id("p").Op("*").Id(g.proxy)).Id(setter).Params(jen.Id("v").Add(typeCode(m.Type))).Block(
			jen.Id("p").Dot("impl").Dot(m.Name).Op("=").Id("v"),
		)
		f.Line()
		return
	}

	infos, names := params(m)
	var sig, call *jen.Statement
	if m.Kind == model.StaticMethod {
		target := m.Name
		if !g.local {
			target = g.t.PackageName() + "." + m.Name
		}
		f.Comment(fmt.Sprintf("%s delegates to %s.", g.staticName(m), target))
		sig = jen.Func().Id(g.staticName(m)).Params(signature(infos, names)...)
		call = g.static(m.Name).Call(forward(infos, names)...)
	} else {
		f.Comment(fmt.Sprintf("%s delegates to %s.%s.", m.Name, g.t.Name, m.Name))
		sig = jen.Func().Params(recv).Id(m.Name).Params(signature(infos, names)...)
		call = jen.Id("p").Dot("impl").Dot(m.Name).Call(forward(infos, names)...)
	}

	stmt := jen.Code(call)
	if len(m.Results) > 0 {
		stmt = jen.Return(call)
	}
	f.Add(withResults(sig, m.Results).Block(stmt))
	f.Line()
}
