package bindings

import (
	"github.com/ethereum/go-ethereum/log"
)

func testLogger() log.Logger {
	return log.New()
}
