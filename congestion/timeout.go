package congestion

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"hop.computer/cctransfer/congestion/protocol"
)

var (
	// ErrNoDistances is returned when there is no node to derive a timeout from.
	ErrNoDistances = errors.New("no path distances")
	// ErrBadDistance is returned for an infinite, negative or oversized distance.
	ErrBadDistance = errors.New("distance cannot produce a timeout")
)

// maxDistance keeps distance*TimeoutFactor+TimeoutBase inside time.Duration.
var maxDistance = float64((math.MaxInt64/int64(time.Millisecond) - int64(protocol.TimeoutBase/time.Millisecond)) / protocol.TimeoutFactor)

// RetransmitTimeout derives the per-session retransmission timeout from the
// shortest-path distances of all nodes, in node identifier order. The rule is
// applied to the last node: floor(distance)*2 + 200 milliseconds.
func RetransmitTimeout(distances []float64) (time.Duration, error) {
	if len(distances) == 0 {
		return 0, ErrNoDistances
	}
	return TimeoutForDistance(distances[len(distances)-1])
}

// TimeoutForDistance applies the timeout rule to a single distance in
// milliseconds.
func TimeoutForDistance(distance float64) (time.Duration, error) {
	if math.IsNaN(distance) || distance < 0 || distance > maxDistance {
		return 0, errors.Wrapf(ErrBadDistance, "%v", distance)
	}
	ms := int64(math.Floor(distance))
	return time.Duration(ms*protocol.TimeoutFactor)*time.Millisecond + protocol.TimeoutBase, nil
}
