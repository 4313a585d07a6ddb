package element

import "reflect"

// Same reports whether a and b are the same value: == for scalars and
// pointers, identity for maps, element-wise for slices and arrays and
// field-wise for structs. Non-nil funcs are never the same, even inside a
// struct. It never panics.
func Same(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case *Element:
		bv, ok := b.(*Element)
		return ok && av == bv
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

// sameValue compares two values of one type without calling Interface, so
// unexported fields and interfaces holding slices or maps are safe.
func sameValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer, reflect.Map:
		return a.Pointer() == b.Pointer()
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		a, b = a.Elem(), b.Elem()
		return a.Type() == b.Type() && sameValue(a, b)
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		if a.Len() == 0 || a.Pointer() == b.Pointer() {
			return true
		}
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	}
	return false
}

// ShallowEqual compares two props maps key by key with Same.
func ShallowEqual(prev, next Props) bool {
	if len(prev) != len(next) {
		return false
	}
	for k, pv := range prev {
		nv, ok := next[k]
		if !ok || !Same(pv, nv) {
			return false
		}
	}
	return true
}
