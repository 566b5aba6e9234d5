package graph

// Rate is the update rate of a port.
type Rate uint8

const (
	// Audio ports carry one value per sample.
	Audio Rate = iota
	// Control ports carry one value per block.
	Control
	// Message ports carry zero or more discrete messages per block.
	Message
)

func (r Rate) String() string {
	switch r {
	case Audio:
		return "audio"
	case Control:
		return "control"
	case Message:
		return "message"
	default:
		return "unknown"
	}
}

// compatible reports if an output of rate from may drive an input of rate
// to. Control drives audio by broadcast, audio drives control by taking
// the last sample of the block.
func compatible(from, to Rate) bool {
	if from == Message || to == Message {
		return from == to
	}
	return true
}
