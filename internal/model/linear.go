package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Linear is a dense affine map from in features to out class scores.
// Its weight and bias are learnable variables on the graph it was built in.
type Linear struct {
	g   *gorgonia.ExprGraph
	w   *gorgonia.Node
	b   *gorgonia.Node
	in  int
	out int
}

// NewLinear adds the layer's parameters to g. Both are drawn from
// U(-1/sqrt(in), 1/sqrt(in)) using seed.
func NewLinear(g *gorgonia.ExprGraph, in, out int, seed int64) *Linear {
	rng := rand.New(rand.NewSource(seed))
	bound := 1 / math.Sqrt(float64(in))
	w := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(out, in),
		gorgonia.WithName("w"),
		gorgonia.WithInit(uniform(rng, bound)))
	b := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(1, out),
		gorgonia.WithName("b"),
		gorgonia.WithInit(uniform(rng, bound)))
	return &Linear{g: g, w: w, b: b, in: in, out: out}
}

func uniform(rng *rand.Rand, bound float64) gorgonia.InitWFn {
	return func(_ tensor.Dtype, s ...int) interface{} {
		vals := make([]float64, tensor.Shape(s).TotalSize())
		for i := range vals {
			vals[i] = (rng.Float64()*2 - 1) * bound
		}
		return vals
	}
}

// Fwd appends x·wᵗ + b to the layer's graph. x must be (rows × in).
func (m *Linear) Fwd(x *gorgonia.Node) (*gorgonia.Node, error) {
	return affine(x, m.w, m.b)
}

func affine(x, w, b *gorgonia.Node) (*gorgonia.Node, error) {
	wT, err := gorgonia.Transpose(w)
	if err != nil {
		return nil, fmt.Errorf("transpose weight: %w", err)
	}
	xw, err := gorgonia.Mul(x, wT)
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}
	scores, err := gorgonia.BroadcastAdd(xw, b, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("add bias: %w", err)
	}
	return scores, nil
}

// Learnables returns the nodes updated by the optimizer.
func (m *Linear) Learnables() gorgonia.Nodes {
	return gorgonia.Nodes{m.w, m.b}
}

// In returns the input width.
func (m *Linear) In() int { return m.in }

// Out returns the number of classes.
func (m *Linear) Out() int { return m.out }

// Params returns a copy of the current weight (out × in) and bias (out).
func (m *Linear) Params() Params {
	w := m.w.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	b := m.b.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	if err := b.Reshape(m.out); err != nil {
		panic(err)
	}
	return Params{Weight: w, Bias: b}
}

// Load overwrites the layer's parameters with p in place.
func (m *Linear) Load(p Params) error {
	if p.Weight == nil || p.Bias == nil {
		return errors.New("model: params missing weight or bias")
	}
	if want := (tensor.Shape{m.out, m.in}); !p.Weight.Shape().Eq(want) {
		return fmt.Errorf("model: weight shape %v, want %v", p.Weight.Shape(), want)
	}
	if p.Bias.Shape().TotalSize() != m.out {
		return fmt.Errorf("model: bias shape %v, want (%d)", p.Bias.Shape(), m.out)
	}
	if p.Weight.Dtype() != tensor.Float64 || p.Bias.Dtype() != tensor.Float64 {
		return errors.New("model: params must be float64")
	}
	bias := p.Bias.Clone().(*tensor.Dense)
	if err := bias.Reshape(1, m.out); err != nil {
		return fmt.Errorf("model: reshape bias: %w", err)
	}
	if err := tensor.Copy(m.w.Value().(*tensor.Dense), p.Weight); err != nil {
		return fmt.Errorf("model: load weight: %w", err)
	}
	if err := tensor.Copy(m.b.Value().(*tensor.Dense), bias); err != nil {
		return fmt.Errorf("model: load bias: %w", err)
	}
	return nil
}

// Scores evaluates x·wᵗ + b for x of shape (rows × in) on a throwaway graph
// holding copies of the parameters, so no gradients are tracked.
func (m *Linear) Scores(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != m.in {
		return nil, fmt.Errorf("model: input shape %v, want (rows, %d)", shape, m.in)
	}
	p := m.Params()
	bias := p.Bias
	if err := bias.Reshape(1, m.out); err != nil {
		return nil, fmt.Errorf("model: reshape bias: %w", err)
	}

	g := gorgonia.NewGraph()
	xn := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(shape...), gorgonia.WithName("x"), gorgonia.WithValue(x))
	wn := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(m.out, m.in), gorgonia.WithName("w"), gorgonia.WithValue(p.Weight))
	bn := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(1, m.out), gorgonia.WithName("b"), gorgonia.WithValue(bias))
	out, err := affine(xn, wn, bn)
	if err != nil {
		return nil, err
	}

	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("model: score: %w", err)
	}
	return out.Value().(*tensor.Dense).Clone().(*tensor.Dense), nil
}
