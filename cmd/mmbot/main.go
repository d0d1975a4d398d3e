// Command mmbot is a multi-symbol, multi-venue crypto market-making
// engine driven by an Avellaneda-Stoikov reservation-price quoting
// model.
//
// Architecture:
//
//	engine/engine.go      — orchestrator: wires feeds → signals → quoter → connector per slot
//	quoter/quoter.go       — per-symbol state machine: quote, reconcile, apply fills
//	quoting/avellaneda_stoikov.go — reservation price + half-spread model
//	risk/{limits,kill_switch,orphan_reaper}.go — account/symbol limits, latching kill switch
//	connector/{paper,live,null}.go — paper sim, live REST, unsupported-venue stub
//	hedge/{hedger,twap,vwap}.go — residual-inventory hedger
//	basis/funding.go       — perp-spot basis/funding capture overlay
//	storage/{sqlite,clickhouse}.go — pluggable trade/fill persistence
//	api/{server,handlers,stream}.go — dashboard HTTP/WS server
//
// How it makes money:
//
//	The engine posts a bid below mid and an ask above mid on each
//	configured symbol. When both sides fill it earns the spread.
//	Avellaneda-Stoikov skews quotes by signed inventory so that
//	accumulating too much of one side attracts offsetting fills
//	instead of compounding directional risk.
package main

import (
	"fmt"
	"os"

	"github.com/mm-engine/mmbot/cmd/mmbot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
