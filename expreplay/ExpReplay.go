// Package expreplay implements experience replay buffers
package expreplay

import (
	"container/list"
	"fmt"

	ts "github.com/qtraderlab/qtrader/timestep"
	"github.com/qtraderlab/qtrader/utils/intutils"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	MaxReplayCapacity int
	SampleSize        int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config. All sampling randomness derives from seed.
func (c Config) Create(seed int64) (ExperienceReplayer, error) {
	remover := NewFifoSelector(1)
	sampler := NewUniformSelector(c.SampleSize, seed)

	return New(remover, sampler, c.MaxReplayCapacity)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer, evicting the oldest
	// transition if the buffer is full
	Add(t ts.Transition) error

	// Sample samples a batch of transitions from the buffer. When the
	// buffer holds fewer transitions than the batch size, all stored
	// transitions are returned; sampling an empty buffer returns an
	// empty batch. Each stored transition appears at most once per
	// batch.
	Sample() []ts.Transition

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer
type cache struct {
	transitions []ts.Transition

	// The indices of the cache that are empty and have no data
	emptyIndices []int

	// The indices of the cache that have data
	inUseIndices []int

	// orderOfInsert outlines the chronological order of inserts. For
	// i > j, the data at index orderOfInsert[i] was inserted into the
	// buffer after the data at index orderOfInsert[j]
	orderOfInsert *list.List

	// Outlines how data is removed and sampled
	remover Selector
	sampler Selector

	maxCapacity int
}

// New creates and returns a new ExperienceReplayer. The remover and
// sampler parameters are Selectors which determine how data is
// removed and sampled from the replay buffer.
func New(remover, sampler Selector, maxCapacity int) (ExperienceReplayer,
	error) {
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if sampler.BatchSize() < 1 {
		return nil, fmt.Errorf("new: cannot have batch size (%v) < 1",
			sampler.BatchSize())
	}
	if maxCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}

	orderOfInsert := list.New()

	remover.registerAsRemover()

	emptyIndices := make([]int, maxCapacity)
	inUseIndices := make([]int, 0, maxCapacity)
	for i := 0; i < maxCapacity; i++ {
		emptyIndices[i] = i
	}

	return &cache{
		transitions: make([]ts.Transition, maxCapacity),

		emptyIndices:  emptyIndices,
		inUseIndices:  inUseIndices,
		orderOfInsert: orderOfInsert,

		remover: remover,
		sampler: sampler,

		maxCapacity: maxCapacity,
	}, nil
}

// sampleFrom returns the indices to sample from
func (c *cache) sampleFrom() []int {
	return c.inUseIndices
}

// insertOrder returns a slice of at most n indices which describes
// the order that the first n data were inserted into the buffer.
// The length of the returned slice is the minimum between n and the
// number of elements currently in the buffer
func (c *cache) insertOrder(n int) []int {
	size := intutils.Min(n, c.Capacity())
	insertOrder := make([]int, size)
	element := c.orderOfInsert.Front()

	for i := 0; i < size; i++ {
		insertOrder[i] = element.Value.(int)
		element = element.Next()
		if element == nil {
			break
		}
	}
	return insertOrder
}

// removeFront removes the earliest tracked index at which data was
// inserted
func (c *cache) removeFront() {
	c.orderOfInsert.Remove(c.orderOfInsert.Front())
}

// BatchSize returns the number of samples sampled using Sample()
func (c *cache) BatchSize() int {
	return c.sampler.BatchSize()
}

// remove evicts elements from the cache at indices chosen by the
// cache's remover
func (c *cache) remove() {
	indices := c.remover.choose(c)
	for _, index := range indices {
		for i := range c.inUseIndices {
			if c.inUseIndices[i] == index {
				c.inUseIndices[i] = c.inUseIndices[len(c.inUseIndices)-1]
				c.inUseIndices = c.inUseIndices[:len(c.inUseIndices)-1]
				break
			}
		}

		c.transitions[index] = ts.Transition{}
		c.emptyIndices = append(c.emptyIndices, index)
	}
}

// Sample samples and returns a batch of transitions from the replay
// buffer. Sampling never fails: an underfull buffer yields a smaller
// batch and an empty buffer yields an empty one.
func (c *cache) Sample() []ts.Transition {
	if c.Capacity() == 0 {
		return nil
	}

	indices := c.sampler.choose(c)

	batch := make([]ts.Transition, len(indices))
	for i, index := range indices {
		batch[i] = c.transitions[index]
	}
	return batch
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Capacity() int {
	return len(c.inUseIndices)
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// Add adds a transition to the cache
func (c *cache) Add(t ts.Transition) error {
	if c.Capacity() >= c.maxCapacity {
		c.remove()
	}

	emptyIndicesLength := len(c.emptyIndices)
	if emptyIndicesLength == 0 {
		return fmt.Errorf("add: no empty cache slot after eviction")
	}
	index := c.emptyIndices[emptyIndicesLength-1]
	c.emptyIndices = c.emptyIndices[:emptyIndicesLength-1]
	c.orderOfInsert.PushBack(index)
	c.inUseIndices = append(c.inUseIndices, index)

	c.transitions[index] = t

	return nil
}
