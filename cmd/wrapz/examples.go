package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/zoobzio/wrapz"
)

// Identities shared by the demos.
var (
	SumID       = wrapz.NewIdentity("sum", "Sums numeric arguments")
	SendID      = wrapz.NewIdentity("send", "Pretends to send a message")
	QuotaID     = wrapz.NewIdentity("quota", "Allows three sends")
	NumbersID   = wrapz.NewIdentity("numbers", "Rejects non-numeric arguments")
	ParseID     = wrapz.NewIdentity("parse", "Parses loosely, sometimes into the wrong type")
	StrictID    = wrapz.NewIdentity("strict", "Requires an int result")
	LookupID    = wrapz.NewIdentity("lookup", "Looks up a key, failing in several ways")
	QuietID     = wrapz.NewIdentity("quiet", "Swallows ValueError")
	RepeatID    = wrapz.NewIdentity("repeat", "Repeats a string n times")
	SignatureID = wrapz.NewIdentity("signature", "Checks (int, string)")
	EqualID     = wrapz.NewIdentity("eq", "a == b")
	LessID      = wrapz.NewIdentity("lt", "a < b")
	UserID      = wrapz.NewIdentity("User", "A user record")
	ConfigID    = wrapz.NewIdentity("Config", "Process-wide configuration")
	PointID     = wrapz.NewIdentity("Point", "A 2D point")
	ConnID      = wrapz.NewIdentity("Conn", "A pooled connection")
	PoolID      = wrapz.NewIdentity("pool", "At most two connections")
)

// errDemo marks a demo whose wrapper did not behave as shown.
var errDemo = errors.New("demo behaved unexpectedly")

func expect(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: "+format, append([]any{errDemo}, args...)...)
}

type callLimiterExample struct{}

func (*callLimiterExample) Name() string { return "calllimiter" }
func (*callLimiterExample) Description() string {
	return "Permit a function a fixed number of calls for its lifetime"
}

func (*callLimiterExample) Demo(ctx context.Context, out io.Writer) error {
	send := wrapz.Transform(SendID, func(_ context.Context, a wrapz.Args) string {
		return fmt.Sprintf("sent %v", a.Positional[0])
	})
	limited := wrapz.NewCallLimiter(QuotaID, 3, send)
	defer limited.Close()

	var last error
	for i := 1; i <= 4; i++ {
		v, err := limited.Call(ctx, wrapz.Positional(i))
		step(out, fmt.Sprintf("send(%d)", i), v, err)
		last = err
	}
	return expect(errors.Is(last, wrapz.ErrCallLimitExceeded), "fourth call succeeded")
}

type takesNumbersExample struct{}

func (*takesNumbersExample) Name() string { return "takesnumbers" }
func (*takesNumbersExample) Description() string {
	return "Reject calls whose arguments are not all int or float64"
}

func (*takesNumbersExample) Demo(ctx context.Context, out io.Writer) error {
	sum := wrapz.Transform(SumID, func(_ context.Context, a wrapz.Args) float64 {
		var total float64
		for _, v := range a.Values() {
			switch n := v.(type) {
			case int:
				total += float64(n)
			case float64:
				total += n
			}
		}
		return total
	})
	gated := wrapz.NewTakesNumbers(NumbersID, sum)
	defer gated.Close()

	v, err := gated.Call(ctx, wrapz.Positional(1, 2.5))
	step(out, "sum(1, 2.5)", v, err)
	if err != nil {
		return err
	}

	v, err = gated.Call(ctx, wrapz.Positional(1, "x"))
	step(out, `sum(1, "x")`, v, err)
	return expect(errors.Is(err, wrapz.ErrInvalidArgumentType), "string accepted")
}

type returnsExample struct{}

func (*returnsExample) Name() string { return "returns" }
func (*returnsExample) Description() string {
	return "Fail when a result's dynamic type is not exactly the expected one"
}

func (*returnsExample) Demo(ctx context.Context, out io.Writer) error {
	parse := wrapz.Transform(ParseID, func(_ context.Context, a wrapz.Args) any {
		return a.Positional[0]
	})
	strict := wrapz.NewReturns(StrictID, wrapz.TypeFor[int](), parse)
	defer strict.Close()

	v, err := strict.Call(ctx, wrapz.Positional(1))
	step(out, "parse(1)", v, err)
	if err != nil {
		return err
	}

	v, err = strict.Call(ctx, wrapz.Positional(1.0))
	step(out, "parse(1.0)", v, err)
	return expect(errors.Is(err, wrapz.ErrUnexpectedReturnType), "float64 accepted")
}

// ValueError and KeyError are the error kinds of the ignore demo.
type ValueError struct{ Value any }

func (e *ValueError) Error() string { return fmt.Sprintf("bad value %v", e.Value) }

type KeyError struct{ Key string }

func (e *KeyError) Error() string { return fmt.Sprintf("missing key %q", e.Key) }

type ignoreExample struct{}

func (*ignoreExample) Name() string { return "ignore" }
func (*ignoreExample) Description() string {
	return "Swallow selected error kinds, returning a zero result and a notice"
}

func (*ignoreExample) Demo(ctx context.Context, out io.Writer) error {
	data := map[string]int{"a": 1}
	lookup := wrapz.Apply(LookupID, func(_ context.Context, a wrapz.Args) (int, error) {
		key := a.Positional[0].(string)
		if key == "" {
			return 0, &ValueError{Value: key}
		}
		v, ok := data[key]
		if !ok {
			return 0, &KeyError{Key: key}
		}
		return v, nil
	})
	quiet := wrapz.NewIgnoreErrors(QuietID, lookup, wrapz.KindOf[*ValueError]())
	defer quiet.Close()

	v, err := quiet.Call(ctx, wrapz.Positional("a"))
	step(out, `lookup("a")`, v, err)

	v, err = quiet.Call(ctx, wrapz.Positional(""))
	step(out, `lookup("")`, v, err)
	if err != nil {
		return err
	}

	v, err = quiet.Call(ctx, wrapz.Positional("b"))
	step(out, `lookup("b")`, v, err)
	var keyErr *KeyError
	return expect(errors.As(err, &keyErr), "KeyError swallowed")
}

type typeCheckExample struct{}

func (*typeCheckExample) Name() string { return "typecheck" }
func (*typeCheckExample) Description() string {
	return "Check positional argument types against a declared list"
}

func (*typeCheckExample) Demo(ctx context.Context, out io.Writer) error {
	repeat := wrapz.Transform(RepeatID, func(_ context.Context, a wrapz.Args) string {
		n, _ := a.Positional[0].(int)
		s := fmt.Sprint(a.Positional[1])
		var r string
		for i := 0; i < n; i++ {
			r += s
		}
		return r
	})
	checked := wrapz.NewTypeCheck(SignatureID, []reflect.Type{wrapz.TypeFor[int](), wrapz.TypeFor[string]()}, repeat)
	defer checked.Close()

	v, err := checked.Call(ctx, wrapz.Positional(3, "ab"))
	step(out, `repeat(3, "ab")`, v, err)
	if err != nil {
		return err
	}

	v, err = checked.Call(ctx, wrapz.Positional(3, "ab", 99))
	step(out, `repeat(3, "ab", 99)`, v, err)
	if err != nil {
		return err
	}

	v, err = checked.Call(ctx, wrapz.Positional(3, 5))
	step(out, "repeat(3, 5)", v, err)
	return expect(errors.Is(err, wrapz.ErrPositionalTypeMismatch), "int accepted as string")
}

type predicateExample struct{}

func (*predicateExample) Name() string { return "predicate" }
func (*predicateExample) Description() string {
	return "Compose boolean functions with And, Or and Not"
}

func (*predicateExample) Demo(ctx context.Context, out io.Writer) error {
	eq := wrapz.NewPredicate(EqualID, func(_ context.Context, a wrapz.Args) bool {
		return a.Positional[0] == a.Positional[1]
	})
	lt := wrapz.NewPredicate(LessID, func(_ context.Context, a wrapz.Args) bool {
		return a.Positional[0].(int) < a.Positional[1].(int)
	})

	cases := []struct {
		expr string
		c    wrapz.Callable[bool]
		args wrapz.Args
		want bool
	}{
		{"(lt | eq)(1, 2)", lt.Or(eq), wrapz.Positional(1, 2), true},
		{"(lt & eq)(1, 2)", lt.And(eq), wrapz.Positional(1, 2), false},
		{"(~lt)(2, 1)", lt.Not(), wrapz.Positional(2, 1), true},
		{"(~~lt | eq)(2, 2)", lt.Not().Not().Or(eq), wrapz.Positional(2, 2), true},
	}
	for _, tc := range cases {
		v, err := tc.c.Call(ctx, tc.args)
		step(out, tc.expr, v, err)
		if err != nil {
			return err
		}
		if v != tc.want {
			return expect(false, "%s returned %v", tc.expr, v)
		}
	}
	return nil
}

// User is the tracker demo type.
type User struct {
	Name string `wrapz:"name"`
}

type trackerExample struct{}

func (*trackerExample) Name() string { return "tracker" }
func (*trackerExample) Description() string {
	return "Record every successfully constructed instance"
}

func (*trackerExample) Demo(ctx context.Context, out io.Writer) error {
	users := wrapz.TrackInstances[User](wrapz.NewClass(UserID, func(_ context.Context, u *User, a wrapz.Args) error {
		name, _ := a.Positional[0].(string)
		if name == "" {
			return errors.New("name required")
		}
		u.Name = name
		return nil
	}))

	for _, name := range []string{"ann", "bob", "", "cat"} {
		u, err := users.New(ctx, wrapz.Positional(name))
		step(out, fmt.Sprintf("User(%q)", name), u, err)
	}

	var names []string
	for _, u := range users.Instances() {
		names = append(names, u.Name)
	}
	step(out, "instances", names, nil)
	return expect(users.Len() == 3, "expected 3 tracked users, got %d", users.Len())
}

// Config is the singleton demo type.
type Config struct {
	Env string `wrapz:"env"`
}

type singletonExample struct{}

func (*singletonExample) Name() string { return "singleton" }
func (*singletonExample) Description() string {
	return "Return the same instance from every construction"
}

func (*singletonExample) Demo(ctx context.Context, out io.Writer) error {
	configs := wrapz.NewSingleton[Config](wrapz.NewClass(ConfigID, func(_ context.Context, c *Config, a wrapz.Args) error {
		c.Env = a.Positional[0].(string)
		return nil
	}))

	a, err := configs.New(ctx, wrapz.Positional("prod"))
	step(out, `Config("prod")`, a, err)
	if err != nil {
		return err
	}
	b, err := configs.New(ctx, wrapz.Positional("dev"))
	step(out, `Config("dev")`, b, err)
	if err != nil {
		return err
	}
	step(out, "same instance", a == b, nil)
	return expect(a == b && b.Env == "prod", "singleton returned a new instance")
}

// Point is the repr demo type.
type Point struct {
	X int `wrapz:"x"`
	Y int `wrapz:"y"`
}

type reprExample struct{}

func (*reprExample) Name() string { return "repr" }
func (*reprExample) Description() string {
	return "Synthesize a TypeName(pos, name=value) debug string"
}

func (*reprExample) Demo(ctx context.Context, out io.Writer) error {
	points := wrapz.NewAutoRepr[Point](wrapz.NewClass(PointID, func(_ context.Context, p *Point, a wrapz.Args) error {
		p.X = a.Positional[0].(int)
		y, _ := a.Lookup("y")
		p.Y, _ = y.(int)
		return nil
	}), []string{"x"}, []string{"y"})

	p, err := points.New(ctx, wrapz.Positional(1).With("y", 2))
	if err != nil {
		return err
	}
	repr, err := points.Repr(p)
	step(out, "Point(1, y=2)", repr, err)
	if err != nil {
		return err
	}
	return expect(repr == "Point(1, y=2)", "unexpected repr %q", repr)
}

// Conn is the limiter demo type.
type Conn struct {
	ID int `wrapz:"id"`
}

type limiterExample struct{}

func (*limiterExample) Name() string { return "limiter" }
func (*limiterExample) Description() string {
	return "Cap distinct instances, keyed by an identity attribute"
}

func (*limiterExample) Demo(ctx context.Context, out io.Writer) error {
	pool := wrapz.NewLimiter[Conn](PoolID, wrapz.NewClass(ConnID, func(_ context.Context, c *Conn, a wrapz.Args) error {
		c.ID = a.Positional[0].(int)
		return nil
	}), 2, "id", wrapz.Last)
	defer pool.Close()

	var got []*Conn
	for _, id := range []int{1, 2, 3, 1} {
		c, err := pool.New(ctx, wrapz.Positional(id))
		step(out, fmt.Sprintf("Conn(id=%d)", id), c, err)
		if err != nil {
			return err
		}
		got = append(got, c)
	}
	return expect(got[2] == got[1] && got[3] == got[0], "lookup policy not applied")
}
