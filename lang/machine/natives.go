package machine

import (
	"bufio"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// registerNatives installs the injected symbol table into module's globals.
// It is called once, for the top-level module of a freshly created Thread.
func registerNatives(th *Thread, module *Module) {
	reader := bufio.NewReader(th.Stdin)

	define := func(name string, arity int, fn func(th *Thread, args []Value) (Value, error)) {
		module.Globals.Put(name, &NativeFunction{NameStr: name, Arity: arity, Fn: fn})
	}

	define("readln", 0, func(_ *Thread, _ []Value) (Value, error) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return Nil, nil
		}
		return String(strings.TrimRight(line, "\r\n")), nil
	})

	define("number", 1, func(_ *Thread, args []Value) (Value, error) {
		switch v := args[0].(type) {
		case Number:
			return v, nil
		case String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to a number", string(v))
			}
			return Number(f), nil
		default:
			return nil, fmt.Errorf("cannot convert %s to a number", v.Type())
		}
	})

	define("int", 1, func(_ *Thread, args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, fmt.Errorf("int() expects a number, got %s", args[0].Type())
		}
		return Number(float64(int64(n))), nil
	})

	define("floor", 1, func(_ *Thread, args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, fmt.Errorf("floor() expects a number, got %s", args[0].Type())
		}
		i := int64(n)
		if float64(i) > float64(n) {
			i--
		}
		return Number(float64(i)), nil
	})

	define("random", 0, func(_ *Thread, _ []Value) (Value, error) {
		return Number(rand.Float64()), nil
	})

	define("panic", 1, func(_ *Thread, args []Value) (Value, error) {
		return nil, &EvalError{Message: args[0].String()}
	})

	define("Array", 1, func(th *Thread, args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, fmt.Errorf("Array() expects a number, got %s", args[0].Type())
		}
		return NewArray(th.heap, int(n)), nil
	})

	define("Map", 0, func(th *Thread, _ []Value) (Value, error) {
		return NewMapValue(th.heap), nil
	})
}
