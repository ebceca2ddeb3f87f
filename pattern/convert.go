package pattern

import (
	"fmt"
	"reflect"

	"github.com/pyguard/subprocheck/pyast"
)

var pyTypes = map[string]reflect.Type{
	"Module":    reflect.TypeFor[pyast.Module](),
	"ExprStmt":  reflect.TypeFor[pyast.ExprStmt](),
	"Assign":    reflect.TypeFor[pyast.Assign](),
	"Call":      reflect.TypeFor[pyast.Call](),
	"Attribute": reflect.TypeFor[pyast.Attribute](),
	"Name":      reflect.TypeFor[pyast.Name](),
	"Str":       reflect.TypeFor[pyast.Str](),
	"Bool":      reflect.TypeFor[pyast.Bool](),
	"Keyword":   reflect.TypeFor[pyast.Keyword](),
	"ListLit":   reflect.TypeFor[pyast.ListLit](),
	"Opaque":    reflect.TypeFor[pyast.Opaque](),
}

// NodeToPy builds a tree from a pattern, substituting bindings with
// their values in state. The pattern must not contain Any, Or or Not.
// The result is a pyast.Node, a string, or a slice of values.
func NodeToPy(node Node, state State) interface{} {
	switch node := node.(type) {
	case Binding:
		v, ok := state[node.Name]
		if !ok {
			panic(fmt.Sprintf("no binding named %q", node.Name))
		}
		return v
	case Nil, nil:
		return nil
	case String:
		return string(node)
	case List:
		var out []interface{}
		var cur Node = node
		for {
			l, ok := cur.(List)
			if !ok {
				rest := reflect.ValueOf(NodeToPy(cur, state))
				if rest.Kind() != reflect.Slice {
					panic(fmt.Sprintf("tail of list %s is not a slice", node))
				}
				for i := 0; i < rest.Len(); i++ {
					out = append(out, rest.Index(i).Interface())
				}
				return out
			}
			if isNil(l.Head) {
				return out
			}
			out = append(out, NodeToPy(l.Head, state))
			cur = l.Tail
		}
	case Any, Or, Not:
		panic(fmt.Sprintf("cannot convert %s to a tree", node))
	}

	pv := reflect.ValueOf(node)
	T, ok := pyTypes[pv.Type().Name()]
	if !ok {
		panic(fmt.Sprintf("internal error: unhandled type %T", node))
	}
	out := reflect.New(T)
	for i := 0; i < pv.NumField(); i++ {
		name := pv.Type().Field(i).Name
		child, _ := pv.Field(i).Interface().(Node)
		assign(out.Elem().FieldByName(name), NodeToPy(child, state))
	}
	return out.Interface()
}

func assign(dst reflect.Value, v interface{}) {
	if v == nil {
		return
	}
	switch dst.Kind() {
	case reflect.String:
		s, ok := v.(string)
		if !ok {
			panic(fmt.Sprintf("cannot use %T as string", v))
		}
		dst.SetString(s)
	case reflect.Bool:
		switch v := v.(type) {
		case bool:
			dst.SetBool(v)
		case string:
			dst.SetBool(v == "True")
		default:
			panic(fmt.Sprintf("cannot use %T as bool", v))
		}
	case reflect.Slice:
		src := reflect.ValueOf(v)
		if src.Kind() != reflect.Slice {
			panic(fmt.Sprintf("cannot use %T as %s", v, dst.Type()))
		}
		out := reflect.MakeSlice(dst.Type(), 0, src.Len())
		for i := 0; i < src.Len(); i++ {
			el := reflect.ValueOf(src.Index(i).Interface())
			if !el.Type().AssignableTo(dst.Type().Elem()) {
				panic(fmt.Sprintf("cannot use %s as %s", el.Type(), dst.Type().Elem()))
			}
			out = reflect.Append(out, el)
		}
		dst.Set(out)
	case reflect.Interface:
		src := reflect.ValueOf(v)
		if !src.Type().AssignableTo(dst.Type()) {
			panic(fmt.Sprintf("cannot use %s as %s", src.Type(), dst.Type()))
		}
		dst.Set(src)
	default:
		panic(fmt.Sprintf("internal error: unhandled field kind %s", dst.Kind()))
	}
}
