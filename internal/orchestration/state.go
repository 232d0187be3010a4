package orchestration

import "fmt"

// State is the position of a run in the scenario.
type State int

// States in the order a run passes through them.
const (
	NotStarted State = iota
	BrokerReady
	Configured
	ConsumerReady
	ProducersReady
	Asserted
	TornDown
)

var stateNames = [...]string{
	NotStarted:     "not_started",
	BrokerReady:    "broker_ready",
	Configured:     "configured",
	ConsumerReady:  "consumer_ready",
	ProducersReady: "producers_ready",
	Asserted:       "asserted",
	TornDown:       "torn_down",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}
