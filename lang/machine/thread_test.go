package machine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/horst-lang/horst/lang/compiler"
	"github.com/horst-lang/horst/lang/machine"
	"github.com/horst-lang/horst/lang/module"
)

func run(t *testing.T, src string, forceGC bool) string {
	t.Helper()
	prog, err := compiler.Compile("test", []byte(src))
	require.NoError(t, err)

	var stdout bytes.Buffer
	th := machine.NewThread(&module.Loader{Root: t.TempDir()}, &stdout, &bytes.Buffer{}, bytes.NewReader(nil))
	th.ForceGCEveryInstruction = forceGC
	require.NoError(t, th.RunProgram(context.Background(), prog))
	return stdout.String()
}

func TestRunArithmeticAndPrint(t *testing.T) {
	require.Equal(t, "7\n", run(t, `print 1 + 2 * 3;`, false))
}

func TestRunClosureCapturesByReference(t *testing.T) {
	src := `
fn counter() {
	let n = 0;
	fn next() {
		n = n + 1;
		return n;
	}
	return next;
}
let c = counter();
print c();
print c();
print c();
`
	require.Equal(t, "1\n2\n3\n", run(t, src, false))
}

func TestRunClassInheritanceAndBoundMethods(t *testing.T) {
	src := `
class Animal {
	init(name) {
		this.name = name;
	}
	speak() {
		print this.name + " makes a sound";
	}
}
class Dog < Animal {
	speak() {
		super.speak();
		print this.name + " barks";
	}
}
let d = Dog("Rex");
d.speak();
`
	require.Equal(t, "Rex makes a sound\nRex barks\n", run(t, src, false))
}

func TestRunArrayIndexingAndIteration(t *testing.T) {
	src := `
let a = [10, 20, 30];
for (let x in a) {
	print x;
}
print a[1];
a[1] = 99;
print a[1];
`
	require.Equal(t, "10\n20\n30\n20\n99\n", run(t, src, false))
}

func TestRunMapGetSet(t *testing.T) {
	src := `
let m = Map();
m.set("a", 1);
print m.get("a");
print m.has("b");
`
	require.Equal(t, "1\nfalse\n", run(t, src, false))
}

func TestRunToStringOverride(t *testing.T) {
	src := `
class Box {
	init(v) {
		this.v = v;
	}
	toString() {
		return "Box(" + this.v + ")";
	}
}
print Box(7);
`
	require.Equal(t, "Box(7)\n", run(t, src, false))
}

func TestRunUndefinedVariableIsRuntimeError(t *testing.T) {
	prog, err := compiler.Compile("test", []byte(`print undefinedThing;`))
	require.NoError(t, err)

	var stdout bytes.Buffer
	th := machine.NewThread(&module.Loader{Root: t.TempDir()}, &stdout, &bytes.Buffer{}, bytes.NewReader(nil))
	err = th.RunProgram(context.Background(), prog)
	require.Error(t, err)

	var evalErr *machine.EvalError
	require.ErrorAs(t, err, &evalErr)
}

// TestGCSafetyUnderForcedCollection runs the same program with and without a
// collection forced before every instruction and requires identical output:
// forcing collections must never free an object still reachable from the
// stack, globals, or an open/closed upvalue.
func TestGCSafetyUnderForcedCollection(t *testing.T) {
	src := `
class Node {
	init(value, next) {
		this.value = value;
		this.next = next;
	}
}
fn buildList(n) {
	let head = nil;
	let i = n;
	while (i > 0) {
		head = Node(i, head);
		i = i - 1;
	}
	return head;
}
fn sumList(node) {
	let total = 0;
	while (node != nil) {
		total = total + node.value;
		node = node.next;
	}
	return total;
}
let list = buildList(50);
print sumList(list);

let arr = Array(10);
let i = 0;
while (i < 10) {
	arr.set(i, i * i);
	i = i + 1;
}
let sum = 0;
for (let v in arr) {
	sum = sum + v;
}
print sum;

fn makeAdder(n) {
	fn add(x) {
		return x + n;
	}
	return add;
}
let add5 = makeAdder(5);
let add10 = makeAdder(10);
print add5(1);
print add10(1);
`
	want := run(t, src, false)
	got := run(t, src, true)
	require.Equal(t, want, got)
	require.Equal(t, "1275\n285\n6\n11\n", want)
}
