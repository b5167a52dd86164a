package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// QMLP implements the ValueFunction interface with a multi-head
// multi-layered perceptron: one output head per action. The training
// graph computes the mean squared error between the network's
// prediction for a state and an externally supplied target vector,
// and a single Update call performs one solver step on that loss.
//
// The network input is a single state observation. Batch training is
// realized by the caller invoking Update once per sampled transition.
type QMLP struct {
	g      *G.ExprGraph
	layers []*fcLayer

	input      *G.Node
	target     *G.Node
	prediction *G.Node
	predVal    G.Value

	vm     G.VM
	solver G.Solver

	features  int
	outputs   int
	learnRate float64

	// Constructor arguments, needed for cloning and gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad
}

// NewQMLP creates and returns a new multi-head MLP value function.
//
// The network has len(hiddenSizes) + 1 layers. A final linear layer
// with a bias unit and no activation is always added so that the
// network predicts one value per action. For index i, hiddenSizes[i]
// is the number of nodes in hidden layer i, biases[i] indicates
// whether hidden layer i has a bias unit, and activations[i] is the
// activation of hidden layer i. Setting hiddenSizes to []int{} yields
// a linear value function.
//
// The init parameter determines the weight initialization scheme and
// learnRate the step size of the vanilla gradient descent solver.
func NewQMLP(features, outputs int, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn,
	learnRate float64) (*QMLP, error) {
	if len(hiddenSizes) != len(activations) {
		msg := "newqmlp: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newqmlp: invalid number of biases\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}
	if features < 1 {
		return nil, fmt.Errorf("newqmlp: features must be positive")
	}
	if outputs < 1 {
		return nil, fmt.Errorf("newqmlp: outputs must be positive")
	}
	if learnRate <= 0 {
		return nil, fmt.Errorf("newqmlp: learning rate must be positive")
	}

	// Add a final linear layer so that the network always predicts
	// one value per action
	layerSizes := append(append([]int{}, hiddenSizes...), outputs)
	layerBiases := append(append([]bool{}, biases...), true)
	layerActivations := append(append([]*Activation{}, activations...),
		Identity())

	g := G.NewGraph()
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := addfcLayers(g, layerSizes, layerBiases, layerActivations,
		init, features)

	net := &QMLP{
		g:           g,
		layers:      layers,
		input:       input,
		features:    features,
		outputs:     outputs,
		learnRate:   learnRate,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}

	// Forward pass
	pred := input
	var err error
	for i, l := range layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "newqmlp: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}
	net.prediction = pred
	G.Read(net.prediction, &net.predVal)

	// Mean squared error toward the target vector
	net.target = G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, outputs),
		G.WithName("target"),
		G.WithInit(G.Zeroes()),
	)
	losses := G.Must(G.Sub(net.prediction, net.target))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newqmlp: could not compute gradient: %v", err)
	}

	net.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))
	net.solver = G.NewVanillaSolver(G.WithLearnRate(learnRate))

	return net, nil
}

// Clone returns a new QMLP with the same topology and a point-in-time
// copy of the receiver's parameters
func (q *QMLP) Clone() (*QMLP, error) {
	clone, err := NewQMLP(q.features, q.outputs, q.hiddenSizes, q.biases,
		q.activations, G.Zeroes(), q.learnRate)
	if err != nil {
		return nil, fmt.Errorf("clone: %v", err)
	}
	if err := clone.SetParameters(q.Parameters()); err != nil {
		return nil, fmt.Errorf("clone: %v", err)
	}
	return clone, nil
}

// Features returns the number of features in a single observation
// vector that the value function takes as input
func (q *QMLP) Features() int {
	return q.features
}

// Outputs returns the number of action values the network predicts
func (q *QMLP) Outputs() int {
	return q.outputs
}

// Evaluate predicts the value of every action in a state
func (q *QMLP) Evaluate(state mat.Vector) ([]float64, error) {
	if err := q.setInput(state); err != nil {
		return nil, fmt.Errorf("evaluate: %v", err)
	}

	if err := q.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("evaluate: could not run forward pass: %v",
			err)
	}
	q.vm.Reset()

	prediction := q.predVal.Data().([]float64)
	out := make([]float64, q.outputs)
	copy(out, prediction)

	return out, nil
}

// Update performs one gradient descent step on the mean squared error
// between the prediction for state and the target vector
func (q *QMLP) Update(state mat.Vector, target []float64) error {
	if len(target) != q.outputs {
		return fmt.Errorf("update: invalid target size\n\twant(%v)"+
			"\n\thave(%v)", q.outputs, len(target))
	}

	if err := q.setInput(state); err != nil {
		return fmt.Errorf("update: %v", err)
	}

	backing := make([]float64, len(target))
	copy(backing, target)
	targetTensor := tensor.New(
		tensor.WithShape(1, q.outputs),
		tensor.WithBacking(backing),
	)
	if err := G.Let(q.target, targetTensor); err != nil {
		return fmt.Errorf("update: could not set target: %v", err)
	}

	if err := q.vm.RunAll(); err != nil {
		return fmt.Errorf("update: could not run training pass: %v", err)
	}
	if err := q.solver.Step(q.Model()); err != nil {
		return fmt.Errorf("update: could not step solver: %v", err)
	}
	q.vm.Reset()

	return nil
}

// Parameters returns a point-in-time copy of all network parameters,
// flattened in layer order
func (q *QMLP) Parameters() []float64 {
	var params []float64
	for _, node := range q.Learnables() {
		params = append(params, node.Value().Data().([]float64)...)
	}

	out := make([]float64, len(params))
	copy(out, params)
	return out
}

// SetParameters overwrites all network parameters with a snapshot
// previously obtained from Parameters()
func (q *QMLP) SetParameters(params []float64) error {
	total := 0
	for _, node := range q.Learnables() {
		total += node.Shape().TotalSize()
	}
	if len(params) != total {
		return fmt.Errorf("setparameters: invalid parameter count"+
			"\n\twant(%v)\n\thave(%v)", total, len(params))
	}

	offset := 0
	for _, node := range q.Learnables() {
		size := node.Shape().TotalSize()
		backing := make([]float64, size)
		copy(backing, params[offset:offset+size])

		values := tensor.New(
			tensor.WithShape(node.Shape()...),
			tensor.WithBacking(backing),
		)
		if err := G.Let(node, values); err != nil {
			return fmt.Errorf("setparameters: could not set %v: %v",
				node.Name(), err)
		}
		offset += size
	}

	return nil
}

// Learnables returns the learnable nodes of the network
func (q *QMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if q.learnables == nil {
		q.learnables = q.computeLearnables()
	}
	return q.learnables
}

// computeLearnables computes all the learnables for the network
func (q *QMLP) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(q.layers))

	for i := range q.layers {
		learnables = append(learnables, q.layers[i].weights)
		if bias := q.layers[i].bias; bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients
func (q *QMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if q.model == nil {
		q.model = q.computeModel()
	}
	return q.model
}

// computeModel computes the model for the network
func (q *QMLP) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(q.layers))
	for _, node := range q.Learnables() {
		model = append(model, node)
	}
	return model
}

// setInput sets the value of the input node before running the
// computational graph
func (q *QMLP) setInput(state mat.Vector) error {
	if state.Len() != q.features {
		return fmt.Errorf("invalid number of inputs\n\twant(%v)\n\thave(%v)",
			q.features, state.Len())
	}

	backing := make([]float64, q.features)
	for i := 0; i < q.features; i++ {
		backing[i] = state.AtVec(i)
	}

	inputTensor := tensor.New(
		tensor.WithShape(1, q.features),
		tensor.WithBacking(backing),
	)
	return G.Let(q.input, inputTensor)
}

// GobEncode implements the gob.GobEncoder interface
func (q *QMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(q.features); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode features")
	}
	if err := enc.Encode(q.outputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode outputs")
	}
	if err := enc.Encode(q.learnRate); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode learning rate")
	}
	if err := enc.Encode(q.hiddenSizes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}
	if err := enc.Encode(q.biases); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}
	if err := enc.Encode(q.activations); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}
	if err := enc.Encode(q.Parameters()); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode parameters")
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (q *QMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var features, outputs int
	if err := dec.Decode(&features); err != nil {
		return fmt.Errorf("gobdecode: could not decode features")
	}
	if err := dec.Decode(&outputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode outputs")
	}

	var learnRate float64
	if err := dec.Decode(&learnRate); err != nil {
		return fmt.Errorf("gobdecode: could not decode learning rate")
	}

	var hiddenSizes []int
	if err := dec.Decode(&hiddenSizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}

	var biases []bool
	if err := dec.Decode(&biases); err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}

	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}

	var params []float64
	if err := dec.Decode(&params); err != nil {
		return fmt.Errorf("gobdecode: could not decode parameters")
	}

	newNet, err := NewQMLP(features, outputs, hiddenSizes, biases,
		activations, G.Zeroes(), learnRate)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new QMLP: %v", err)
	}
	if err := newNet.SetParameters(params); err != nil {
		return fmt.Errorf("gobdecode: could not restore parameters: %v", err)
	}

	*q = *newNet
	return nil
}
