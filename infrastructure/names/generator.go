package names

import (
	"chat-exchange/contract"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
)

var _ contract.NameGenerator = (*Generator)(nil)

// Generator produces random full names used to label anonymous peers.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewGenerator creates a generator. A zero seed picks a random one.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faker.Name()
}
