package call

import (
	"time"
)

// QualityThresholds defines when a network sample counts as a poor
// connection
type QualityThresholds struct {
	// PacketLossPoor is the packet loss percentage treated as poor
	PacketLossPoor float64

	// RTTPoor is the round-trip time treated as poor
	RTTPoor time.Duration

	// JitterPoor is the jitter treated as poor
	JitterPoor time.Duration

	// MinBandwidth is the minimum acceptable bandwidth in bits/sec
	MinBandwidth int
}

// DefaultQualityThresholds returns the default thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		PacketLossPoor: 10.0,
		RTTPoor:        500 * time.Millisecond,
		JitterPoor:     100 * time.Millisecond,
		MinBandwidth:   300_000,
	}
}

// Score computes a numeric quality score (0-100) for a network sample
func Score(sample NetworkSample) int {
	// Packet loss (0-40 points)
	packetLoss := 0
	switch {
	case sample.PacketLoss < 1.0:
		packetLoss = 40
	case sample.PacketLoss < 3.0:
		packetLoss = 30
	case sample.PacketLoss < 5.0:
		packetLoss = 20
	case sample.PacketLoss < 10.0:
		packetLoss = 10
	}

	// RTT (0-30 points)
	rtt := 0
	switch ms := sample.RTT.Milliseconds(); {
	case ms < 100:
		rtt = 30
	case ms < 200:
		rtt = 20
	case ms < 400:
		rtt = 10
	}

	// Jitter (0-20 points)
	jitter := 0
	switch ms := sample.Jitter.Milliseconds(); {
	case ms < 20:
		jitter = 20
	case ms < 50:
		jitter = 15
	case ms < 100:
		jitter = 10
	}

	// Bandwidth (0-10 points)
	bandwidth := 0
	switch {
	case sample.Bandwidth > 3_000_000:
		bandwidth = 10
	case sample.Bandwidth > 1_000_000:
		bandwidth = 7
	case sample.Bandwidth > 500_000:
		bandwidth = 4
	}

	return packetLoss + rtt + jitter + bandwidth
}

// IsPoor reports whether a sample should raise the poor-connection signal.
// Any single threshold breach counts, as does an overall low score.
func (t QualityThresholds) IsPoor(sample NetworkSample) bool {
	if sample.PacketLoss >= t.PacketLossPoor {
		return true
	}
	if sample.RTT >= t.RTTPoor {
		return true
	}
	if sample.Jitter >= t.JitterPoor {
		return true
	}
	if sample.Bandwidth > 0 && sample.Bandwidth < t.MinBandwidth {
		return true
	}

	return Score(sample) < 30
}
