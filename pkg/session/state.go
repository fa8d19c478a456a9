package session

// State is the lifecycle state of an encode session.
//
//	Idle -> Writing -> Finishing -> Completed
//	  \        \           \
//	   +--------+-----------+-> Failed
type State int

const (
	Idle State = iota
	Writing
	Finishing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Writing:
		return "writing"
	case Finishing:
		return "finishing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
