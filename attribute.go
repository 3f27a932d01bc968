package wrapz

import (
	"fmt"
	"reflect"
)

// attributeTag is the struct tag that gives a field an attribute name
// different from its Go name:
//
//	type Point struct {
//	    X int `wrapz:"x"`
//	}
const attributeTag = "wrapz"

// Attributer lets a type resolve attributes itself. It takes precedence over
// struct fields and methods.
type Attributer interface {
	Attribute(name string) (any, bool)
}

// Attribute resolves the attribute called name on obj. Resolution order:
//  1. obj's Attribute method, if obj implements Attributer
//  2. an exported struct field tagged `wrapz:"<name>"`
//  3. an exported struct field called name
//  4. an exported method called name taking no arguments and returning one value
//
// A miss returns an error wrapping ErrAttributeLookup.
func Attribute(obj any, name string) (any, error) {
	if a, ok := obj.(Attributer); ok {
		if v, found := a.Attribute(name); found {
			return v, nil
		}
	}

	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: nil has no attribute %q", ErrAttributeLookup, name)
	}

	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, fmt.Errorf("%w: nil %s has no attribute %q", ErrAttributeLookup, v.Type(), name)
	}

	elem := reflect.Indirect(v)
	if elem.Kind() == reflect.Struct {
		if field, ok := lookupField(elem.Type(), name); ok {
			fv, err := elem.FieldByIndexErr(field.Index)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrAttributeLookup, elem.Type(), name, err)
			}
			return fv.Interface(), nil
		}
	}

	if m := v.MethodByName(name); m.IsValid() {
		if m.Type().NumIn() == 0 && m.Type().NumOut() == 1 {
			return m.Call(nil)[0].Interface(), nil
		}
	}

	return nil, fmt.Errorf("%w: %s has no attribute %q", ErrAttributeLookup, v.Type(), name)
}

func lookupField(t reflect.Type, name string) (reflect.StructField, bool) {
	for _, f := range reflect.VisibleFields(t) {
		if f.IsExported() && f.Tag.Get(attributeTag) == name {
			return f, true
		}
	}
	f, ok := t.FieldByName(name)
	if !ok || !f.IsExported() {
		return reflect.StructField{}, false
	}
	return f, true
}
