package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

const (
	letters      = "abcdefghijklmnopqrstuvwxyz"
	alphanumeric = letters + "0123456789"
	maxAttempts  = 100
)

// Generator produces random machine names. Names handed out by one generator
// are remembered so repeats are avoided within a test run.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	issued map[string]struct{}
}

// New returns a generator seeded from the operating system.
func New() *Generator {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		binary.LittleEndian.PutUint64(seed[:], rand.Uint64())
	}
	return newGenerator(seed)
}

// NewSeeded returns a deterministic generator.
func NewSeeded(seed uint64) *Generator {
	var raw [32]byte
	binary.LittleEndian.PutUint64(raw[:], seed)
	return newGenerator(raw)
}

func newGenerator(seed [32]byte) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewChaCha8(seed)),
		issued: make(map[string]struct{}),
	}
}

// MachineName returns a lowercase alphanumeric name of length characters
// starting with a letter. Non-positive lengths yield an empty string.
func (g *Generator) MachineName(length int) string {
	if length <= 0 {
		return ""
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var name string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		name = g.candidate(length)
		if _, seen := g.issued[name]; !seen {
			break
		}
	}
	g.issued[name] = struct{}{}

	return name
}

func (g *Generator) candidate(length int) string {
	buf := make([]byte, length)
	buf[0] = letters[g.rng.IntN(len(letters))]
	for i := 1; i < length; i++ {
		buf[i] = alphanumeric[g.rng.IntN(len(alphanumeric))]
	}
	return string(buf)
}
