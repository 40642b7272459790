package verify

import (
	"math/big"

	"fortio.org/safecast"

	"cscrape/internal/expr"
	"cscrape/internal/scrape"
)

// scraperObject exposes a Scraper to query expressions as "obj".
type scraperObject struct {
	s *scrape.Scraper
}

func (o *scraperObject) Attr(name string) (expr.Value, bool) {
	switch name {
	case "type_size":
		return expr.Func(o.typeSize), true
	case "type_alignment":
		return expr.Func(o.typeAlignment), true
	case "enum":
		return expr.Func(o.enum), true
	case "enum_type":
		return expr.Func(o.enumType), true
	case "var":
		return expr.Func(o.variable), true
	case "func":
		return expr.Func(o.function), true
	case "config":
		return expr.Func(o.config), true
	}
	return nil, false
}

var scopeParams = []string{"filename", "function", "typename"}

// scopeArg reads an optional scope field; None and a missing argument both
// mean the wildcard.
func scopeArg(fn, param string, v expr.Value) (string, error) {
	switch x := v.(type) {
	case nil:
		return scrape.Wildcard, nil
	case string:
		return x, nil
	}
	return "", &expr.Error{Class: "TypeError", Msg: fn + "() argument '" + param + "' must be str, not " + expr.TypeName(v)}
}

func scopeOf(fn string, vals []expr.Value) (scrape.Scope, error) {
	fields := make([]string, len(scopeParams))
	for i := range scopeParams {
		var v expr.Value
		if i < len(vals) {
			v = vals[i]
		}
		s, err := scopeArg(fn, scopeParams[i], v)
		if err != nil {
			return scrape.Scope{}, err
		}
		fields[i] = s
	}
	return scrape.Scope{Filename: fields[0], Function: fields[1], Typename: fields[2]}, nil
}

func requiredString(fn, param string, v expr.Value) (string, error) {
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return "", &expr.Error{Class: "TypeError", Msg: fn + "() missing required argument '" + param + "'"}
		}
		return "", &expr.Error{Class: "TypeError", Msg: fn + "() argument '" + param + "' must be str, not " + expr.TypeName(v)}
	}
	return s, nil
}

func (o *scraperObject) typeSize(args []expr.Value, kwargs map[string]expr.Value) (expr.Value, error) {
	bound, err := expr.Bind("type_size", []string{"type_name"}, args, kwargs)
	if err != nil {
		return nil, err
	}
	name, err := requiredString("type_size", "type_name", bound[0])
	if err != nil {
		return nil, err
	}
	size, err := o.s.TypeSize(name)
	if err != nil {
		return nil, err
	}
	return int64(size), nil
}

func (o *scraperObject) typeAlignment(args []expr.Value, kwargs map[string]expr.Value) (expr.Value, error) {
	bound, err := expr.Bind("type_alignment", []string{"type_name"}, args, kwargs)
	if err != nil {
		return nil, err
	}
	name, err := requiredString("type_alignment", "type_name", bound[0])
	if err != nil {
		return nil, err
	}
	align, err := o.s.TypeAlignment(name)
	if err != nil {
		return nil, err
	}
	return int64(align), nil
}

func (o *scraperObject) enum(args []expr.Value, kwargs map[string]expr.Value) (expr.Value, error) {
	bound, err := expr.Bind("enum", append([]string{"name"}, scopeParams...), args, kwargs)
	if err != nil {
		return nil, err
	}
	name, err := requiredString("enum", "name", bound[0])
	if err != nil {
		return nil, err
	}
	sc, err := scopeOf("enum", bound[1:])
	if err != nil {
		return nil, err
	}
	v, err := o.s.Enum(name, sc)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (o *scraperObject) enumType(args []expr.Value, kwargs map[string]expr.Value) (expr.Value, error) {
	bound, err := expr.Bind("enum_type", scopeParams, args, kwargs)
	if err != nil {
		return nil, err
	}
	sc, err := scopeOf("enum_type", bound)
	if err != nil {
		return nil, err
	}
	values, err := o.s.EnumType(sc)
	if err != nil {
		return nil, err
	}
	d := expr.NewDict()
	for _, v := range values {
		d.Set(v.Name, expr.NewDict().
			Set("value", v.Value).
			Set("line", v.Line).
			Set("line_number", int64(v.LineNumber)))
	}
	return d, nil
}

func (o *scraperObject) variable(args []expr.Value, kwargs map[string]expr.Value) (expr.Value, error) {
	bound, err := expr.Bind("var", append([]string{"name"}, scopeParams...), args, kwargs)
	if err != nil {
		return nil, err
	}
	name, err := requiredString("var", "name", bound[0])
	if err != nil {
		return nil, err
	}
	sc, err := scopeOf("var", bound[1:])
	if err != nil {
		return nil, err
	}
	v, err := o.s.Var(name, sc)
	if err != nil {
		return nil, err
	}
	return expr.NewDict().
		Set("name", v.Name).
		Set("filename", v.Filename).
		Set("line_number", int64(v.LineNumber)).
		Set("line", v.Line).
		Set("type", v.Type).
		Set("enum_name", noneIfEmpty(v.EnumName)).
		Set("array", intList(v.Array)).
		Set("ptr", int64(v.Ptr)).
		Set("size", int64(v.Size)).
		Set("function", noneIfEmpty(v.Function)).
		Set("static", v.Static).
		Set("exception", noneIfEmpty(v.Exception)).
		Set("addr", optionalAddr(v.Addr)), nil
}

func (o *scraperObject) function(args []expr.Value, kwargs map[string]expr.Value) (expr.Value, error) {
	bound, err := expr.Bind("func", []string{"name", "filename"}, args, kwargs)
	if err != nil {
		return nil, err
	}
	name, err := requiredString("func", "name", bound[0])
	if err != nil {
		return nil, err
	}
	filename, err := scopeArg("func", "filename", bound[1])
	if err != nil {
		return nil, err
	}
	f, err := o.s.Func(name, scrape.Scope{Filename: filename})
	if err != nil {
		return nil, err
	}
	params := make([]expr.Value, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, expr.NewDict().
			Set("name", noneIfEmpty(p.Name)).
			Set("type", p.Type).
			Set("ptr", int64(p.Ptr)).
			Set("array", intList(p.Array)))
	}
	return expr.NewDict().
		Set("name", f.Name).
		Set("filename", f.Filename).
		Set("line_number", int64(f.LineNumber)).
		Set("line", f.Line).
		Set("type", f.Type).
		Set("ptr", int64(f.Ptr)).
		Set("params", params).
		Set("static", f.Static).
		Set("addr", optionalAddr(f.Addr)).
		Set("size", optionalAddr(f.Size)), nil
}

func (o *scraperObject) config(args []expr.Value, kwargs map[string]expr.Value) (expr.Value, error) {
	bound, err := expr.Bind("config", []string{"config_name"}, args, kwargs)
	if err != nil {
		return nil, err
	}
	name, err := requiredString("config", "config_name", bound[0])
	if err != nil {
		return nil, err
	}
	return nil, o.s.Config(name)
}

// optionalAddr is None without map data. Addresses past 2^63 become longs.
func optionalAddr(p *uint64) expr.Value {
	if p == nil {
		return nil
	}
	if v, err := safecast.Conv[int64](*p); err == nil {
		return v
	}
	return new(big.Int).SetUint64(*p)
}

func noneIfEmpty(s string) expr.Value {
	if s == "" {
		return nil
	}
	return s
}

func intList(dims []int) []expr.Value {
	out := make([]expr.Value, len(dims))
	for i, d := range dims {
		out[i] = int64(d)
	}
	return out
}
