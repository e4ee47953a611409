package id

// Gen generates the number id.
type Gen func() uint64

// Generator hands out number ids.
type Generator interface {
	Number() uint64
}

var (
	_ Generator = Gen(nil)
)

func (gen Gen) Number() uint64 { return gen() }
