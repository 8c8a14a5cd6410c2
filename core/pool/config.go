package pool

import (
	"time"

	"github.com/chainreactors/proxyclient"
	"github.com/chainreactors/words"
)

type Config struct {
	BaseURL     string
	Rate        int
	Timeout     time.Duration
	RetryLimit  int
	ClientType  int
	ProxyClient proxyclient.Dial
	Fns         []words.WordFunc
}

func NewBruteWords(config *Config, list []string) *words.Worder {
	word := words.NewWorderWithList(list)
	word.Fns = config.Fns
	word.Run()
	return word
}
