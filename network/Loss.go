package network

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Loss names the loss an MLP is fit on
type Loss string

const (
	// MSE is the mean squared error
	MSE Loss = "mse"

	// Huber is the mean Huber loss with a threshold of 1, quadratic
	// for errors within the threshold and linear outside it
	Huber Loss = "huber"
)

// Validate returns an error if the loss is unknown
func (l Loss) Validate() error {
	switch l {
	case MSE, Huber:
		return nil
	}
	return fmt.Errorf("unknown loss %q\n\twant(%v or %v)", string(l), MSE,
		Huber)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (l *Loss) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if err := Loss(name).Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	*l = Loss(name)
	return nil
}

// build adds the loss between pred and targets to the graph of pred
func (l Loss) build(pred, targets *G.Node) (*G.Node, error) {
	diff, err := G.Sub(pred, targets)
	if err != nil {
		return nil, err
	}

	switch l {
	case MSE:
		return G.Mean(G.Must(G.Square(diff)))

	case Huber:
		// With a = |δ| and r = max(a - 1, 0) the Huber loss is
		// 0.5(a - r)² + r
		one := G.NewConstant(1.0)
		half := G.NewConstant(0.5)

		abs := G.Must(G.Abs(diff))
		r := G.Must(G.Rectify(G.Must(G.Sub(abs, one))))
		quad := G.Must(G.Square(G.Must(G.Sub(abs, r))))
		quad = G.Must(G.Mul(quad, half))
		return G.Mean(G.Must(G.Add(quad, r)))
	}

	return nil, l.Validate()
}
