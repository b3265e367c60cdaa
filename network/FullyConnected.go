package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x = G.Must(G.Mul(x, f.weights))
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))
	}
	return f.act.fwd(x)
}

// addfcLayers adds fully connected layers of the given sizes to g. The
// weights of layer i are named Wi and its bias Bi. Biases start at 0.
func addfcLayers(g *G.ExprGraph, features int, sizes []int, biases []bool,
	activations []*Activation, init G.InitWFn) []*fcLayer {
	layers := make([]*fcLayer, len(sizes))

	in := features
	for i, size := range sizes {
		weights := G.NewMatrix(g, tensor.Float64, G.WithShape(in, size),
			G.WithName(fmt.Sprintf("W%d", i)), G.WithInit(init))

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(g, tensor.Float64, G.WithShape(1, size),
				G.WithName(fmt.Sprintf("B%d", i)), G.WithInit(G.Zeroes()))
		}

		layers[i] = &fcLayer{weights: weights, bias: bias, act: activations[i]}
		in = size
	}
	return layers
}
