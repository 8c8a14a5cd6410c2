package pool

import (
	"github.com/stormloft/pummel/pkg"
)

func NewUnit(number int, candidate *pkg.Candidate) *Unit {
	return &Unit{number: number, candidate: candidate}
}

type Unit struct {
	number    int
	candidate *pkg.Candidate
}

type Mode int

const (
	HttpMode Mode = iota + 1
	PortMode
)

var ModeMap = map[string]Mode{
	"http": HttpMode,
	"port": PortMode,
}
