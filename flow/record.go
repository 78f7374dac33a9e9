package flow

const (
	// TimeoutMicros is the maximum lifetime of a flow before the engine
	// force-expires it regardless of activity.
	TimeoutMicros uint64 = 120_000_000

	subflowTimeoutMicros  uint64 = 1_000_000
	activityTimeoutMicros uint64 = 5_000_000
	bulkThreshold         uint64 = 4
)

// Record is a single bidirectional flow and the running CICFlowMeter-style
// statistics accumulated over the packets seen for it so far. Every
// Update call mutates the record incrementally; nothing here re-scans
// prior packets.
type Record struct {
	Key Key

	Status     Status
	CloseState CloseState

	FirstPacketForward bool

	lastPacketTimestamp uint64
	lastFwdTimestamp    uint64
	lastBwdTimestamp    uint64

	StartTimeMicros uint64
	LastTimeMicros  uint64
	DurationMicros  uint64

	TotalPackets    uint64
	TotalFwdPackets uint64
	TotalBwdPackets uint64

	TotalBytes    uint64
	TotalFwdBytes uint64
	TotalBwdBytes uint64

	packetLen    welford
	fwdPacketLen welford
	bwdPacketLen welford

	FwdHeaderBytes uint64
	BwdHeaderBytes uint64

	FlowBytesPerSec   float64
	FlowPacketsPerSec float64
	FwdPacketsPerSec  float64
	BwdPacketsPerSec  float64

	flowIAT welford
	fwdIAT  directionalIAT
	bwdIAT  directionalIAT

	FwdPSHFlags uint64
	BwdPSHFlags uint64
	FwdURGFlags uint64
	BwdURGFlags uint64

	FINFlagCount uint64
	SYNFlagCount uint64
	RSTFlagCount uint64
	PSHFlagCount uint64
	ACKFlagCount uint64
	URGFlagCount uint64
	CWRFlagCount uint64
	ECEFlagCount uint64

	DownUpRatio        float64
	AvgPacketSize      float64
	FwdSegmentSizeAvg  float64
	BwdSegmentSizeAvg  float64
	FwdSegSizeMin      float64

	// Bulk transfer tracking (see updateBulk).
	numFwdBulkTransmissions uint64
	fwdBulkStart            uint64
	fwdBulkEnd              uint64
	fwdBulkDuration         uint64
	fwdBytesCurrBulk        float64
	fwdBytesBulkTotal       float64
	fwdPacketBulkTotal      float64
	FwdBytesBulkAvg         float64
	FwdPacketBulkAvg        float64
	FwdBulkRateAvg          float64

	numBwdBulkTransmissions uint64
	bwdBulkStart            uint64
	bwdBulkEnd              uint64
	bwdBulkDuration         uint64
	bwdBytesCurrBulk        float64
	bwdBytesBulkTotal       float64
	bwdPacketBulkTotal      float64
	BwdBytesBulkAvg         float64
	BwdPacketBulkAvg        float64
	BwdBulkRateAvg          float64

	fwdConsecutivePackets uint64
	bwdConsecutivePackets uint64
	hasLastBulkDirection  bool
	lastBulkDirection     Direction

	TotalFwdSubflows  uint64
	SubflowFwdPackets uint64
	SubflowFwdBytes   uint64
	TotalBwdSubflows  uint64
	SubflowBwdPackets uint64
	SubflowBwdBytes   uint64

	FwdInitWinBytes  uint32
	BwdInitWinBytes  uint32
	FwdActDataPackets uint64

	activeTime          welford
	idleTime            welford
	lastActivityTime    uint64
	currentActiveStart  uint64
	currentIdleStart    uint64
	isInActivePeriod    bool
}

// New creates a Record for a flow whose first observed packet is pkt.
func New(pkt Packet) *Record {
	r := &Record{
		Key:                 pkt.Key,
		Status:              StatusActive,
		CloseState:          CloseStateNonClosing,
		FirstPacketForward:  pkt.Direction() == Forward,
		lastPacketTimestamp: pkt.TimestampMicros,
		lastFwdTimestamp:    0,
		lastBwdTimestamp:    0,
		StartTimeMicros:     pkt.TimestampMicros,
		LastTimeMicros:      pkt.TimestampMicros,

		packetLen:    newWelford(),
		fwdPacketLen: newWelford(),
		bwdPacketLen: newWelford(),
		flowIAT:      newWelford(),
		fwdIAT:       newDirectionalIAT(),
		bwdIAT:       newDirectionalIAT(),
		activeTime:   newWelford(),
		idleTime:     newWelford(),

		FwdSegSizeMin: posInf(),

		fwdConsecutivePackets: 1,
		lastActivityTime:      pkt.TimestampMicros,
		currentActiveStart:    pkt.TimestampMicros,
		isInActivePeriod:      true,
	}
	// Only a forward first packet seeds the forward last-seen timestamp,
	// so a backward first packet never counts as a forward gap.
	if r.FirstPacketForward {
		r.lastFwdTimestamp = pkt.TimestampMicros
	}
	r.Update(pkt)
	return r
}

func posInf() float64 {
	var f float64 = 1
	return f / 0
}

// Update folds one more packet into the flow's running statistics. The
// steps run in a fixed order because later steps read state written by
// earlier ones (e.g. bulk tracking reads the "last packet timestamp"
// already advanced by the IAT step).
func (r *Record) Update(pkt Packet) {
	direction := pkt.Direction()
	payload := pkt.PayloadLen

	r.updateSubflow(pkt.TimestampMicros, direction, payload)
	r.updatePacketLength(pkt.TotalLen, direction)
	r.updateByteCounters(direction, payload, pkt.HeaderLen, pkt.WindowSize)
	r.updateIAT(pkt.TimestampMicros, direction)
	r.updateActiveIdle(pkt.TimestampMicros)
	r.updateBulk(direction, payload)
	r.updateFlags(pkt.TCPFlags, direction)

	r.LastTimeMicros = pkt.TimestampMicros
	r.DurationMicros = saturatingSub(r.LastTimeMicros, r.StartTimeMicros)
	r.Status = StatusActive

	r.calculateDerived()
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

func (r *Record) updateSubflow(timestamp uint64, direction Direction, payloadLen uint32) {
	switch direction {
	case Forward:
		if r.lastFwdTimestamp > 0 {
			gap := saturatingSub(timestamp, r.lastFwdTimestamp)
			if gap > subflowTimeoutMicros {
				r.TotalFwdSubflows++
				r.SubflowFwdPackets = 1
				r.SubflowFwdBytes = uint64(payloadLen)
			} else {
				r.SubflowFwdPackets++
				r.SubflowFwdBytes += uint64(payloadLen)
			}
		} else {
			r.TotalFwdSubflows = 1
			r.SubflowFwdPackets = 1
			r.SubflowFwdBytes = uint64(payloadLen)
		}
	case Backward:
		if r.lastBwdTimestamp > 0 {
			gap := saturatingSub(timestamp, r.lastBwdTimestamp)
			if gap > subflowTimeoutMicros {
				r.TotalBwdSubflows++
				r.SubflowBwdPackets = 1
				r.SubflowBwdBytes = uint64(payloadLen)
			} else {
				r.SubflowBwdPackets++
				r.SubflowBwdBytes += uint64(payloadLen)
			}
		} else {
			r.TotalBwdSubflows = 1
			r.SubflowBwdPackets = 1
			r.SubflowBwdBytes = uint64(payloadLen)
		}
	}
}

func (r *Record) updatePacketLength(packetLen uint32, direction Direction) {
	r.TotalPackets++
	r.packetLen.update(float64(packetLen))

	switch direction {
	case Forward:
		r.TotalFwdPackets++
		r.fwdPacketLen.update(float64(packetLen))
	case Backward:
		r.TotalBwdPackets++
		r.bwdPacketLen.update(float64(packetLen))
	}
}

func (r *Record) updateByteCounters(direction Direction, payloadLen uint32, headerLen uint32, windowSize uint16) {
	r.TotalBytes += uint64(payloadLen)

	switch direction {
	case Forward:
		r.TotalFwdBytes += uint64(payloadLen)
		r.FwdHeaderBytes += uint64(headerLen)
		if payloadLen > 0 {
			r.FwdActDataPackets++
			if seg := float64(payloadLen); seg < r.FwdSegSizeMin {
				r.FwdSegSizeMin = seg
			}
		}
		if r.TotalFwdPackets == 1 {
			r.FwdInitWinBytes = uint32(windowSize)
		}
	case Backward:
		r.TotalBwdBytes += uint64(payloadLen)
		r.BwdHeaderBytes += uint64(headerLen)
		if r.TotalBwdPackets == 1 {
			r.BwdInitWinBytes = uint32(windowSize)
		}
	}
}

func (r *Record) updateIAT(timestamp uint64, direction Direction) {
	if r.TotalPackets > 1 {
		flowIAT := saturatingSub(timestamp, r.lastPacketTimestamp)
		r.flowIAT.update(float64(flowIAT))

		switch direction {
		case Forward:
			if r.lastFwdTimestamp > 0 {
				fwdIAT := timestamp - r.lastFwdTimestamp
				// Corrected: accumulate against the forward-specific gap,
				// not the flow-level gap, with a real min AND max.
				r.fwdIAT.update(float64(fwdIAT), r.TotalFwdPackets)
			}
			r.lastFwdTimestamp = timestamp
		case Backward:
			if r.lastBwdTimestamp > 0 {
				bwdIAT := timestamp - r.lastBwdTimestamp
				r.bwdIAT.update(float64(bwdIAT), r.TotalBwdPackets)
			}
			r.lastBwdTimestamp = timestamp
		}
	} else {
		switch direction {
		case Forward:
			r.lastFwdTimestamp = timestamp
		case Backward:
			r.lastBwdTimestamp = timestamp
		}
	}

	r.lastPacketTimestamp = timestamp
}

func (r *Record) updateActiveIdle(timestamp uint64) {
	if r.TotalPackets > 1 {
		sinceLast := saturatingSub(timestamp, r.lastActivityTime)

		if sinceLast > activityTimeoutMicros {
			if r.isInActivePeriod {
				active := saturatingSub(r.lastActivityTime, r.currentActiveStart)
				r.activeTime.update(float64(active))
				r.currentIdleStart = r.lastActivityTime
				r.isInActivePeriod = false
			}
			// Idle duration is committed once activity resumes, not here.
		} else if !r.isInActivePeriod {
			idle := saturatingSub(timestamp, r.currentIdleStart)
			r.idleTime.update(float64(idle))
			r.currentActiveStart = timestamp
			r.isInActivePeriod = true
		}
	}

	r.lastActivityTime = timestamp
}

func (r *Record) updateBulk(direction Direction, payloadLen uint32) {
	switch direction {
	case Forward:
		if r.hasLastBulkDirection && r.lastBulkDirection == Forward {
			r.fwdConsecutivePackets++
		} else {
			if r.bwdConsecutivePackets >= bulkThreshold {
				r.finalizeBwdBulk()
			}
			r.fwdConsecutivePackets = 1
			r.fwdBulkStart = r.lastPacketTimestamp
		}
		if payloadLen > 0 {
			r.fwdBytesCurrBulk += float64(payloadLen)
		}
		r.hasLastBulkDirection = true
		r.lastBulkDirection = Forward
	case Backward:
		if r.hasLastBulkDirection && r.lastBulkDirection == Backward {
			r.bwdConsecutivePackets++
		} else {
			if r.fwdConsecutivePackets >= bulkThreshold {
				r.finalizeFwdBulk()
			}
			r.bwdConsecutivePackets = 1
			r.bwdBulkStart = r.lastPacketTimestamp
		}
		if payloadLen > 0 {
			r.bwdBytesCurrBulk += float64(payloadLen)
		}
		r.hasLastBulkDirection = true
		r.lastBulkDirection = Backward
	}
}

func (r *Record) finalizeFwdBulk() {
	if r.fwdConsecutivePackets >= bulkThreshold {
		r.numFwdBulkTransmissions++
		r.fwdBytesBulkTotal += r.fwdBytesCurrBulk
		r.fwdPacketBulkTotal += float64(r.fwdConsecutivePackets)

		n := float64(r.numFwdBulkTransmissions)
		r.FwdBytesBulkAvg = r.fwdBytesBulkTotal / n
		r.FwdPacketBulkAvg = r.fwdPacketBulkTotal / n

		r.fwdBulkEnd = r.lastPacketTimestamp
		r.fwdBulkDuration = saturatingSub(r.fwdBulkEnd, r.fwdBulkStart)
		if r.fwdBulkDuration > 0 {
			r.FwdBulkRateAvg = r.fwdBytesCurrBulk / (float64(r.fwdBulkDuration) / 1_000_000.0)
		}
	}

	r.fwdBytesCurrBulk = 0
	r.fwdConsecutivePackets = 0
}

func (r *Record) finalizeBwdBulk() {
	if r.bwdConsecutivePackets >= bulkThreshold {
		r.numBwdBulkTransmissions++
		r.bwdBytesBulkTotal += r.bwdBytesCurrBulk
		r.bwdPacketBulkTotal += float64(r.bwdConsecutivePackets)

		n := float64(r.numBwdBulkTransmissions)
		r.BwdBytesBulkAvg = r.bwdBytesBulkTotal / n
		r.BwdPacketBulkAvg = r.bwdPacketBulkTotal / n

		r.bwdBulkEnd = r.lastPacketTimestamp
		r.bwdBulkDuration = saturatingSub(r.bwdBulkEnd, r.bwdBulkStart)
		if r.bwdBulkDuration > 0 {
			r.BwdBulkRateAvg = r.bwdBytesCurrBulk / (float64(r.bwdBulkDuration) / 1_000_000.0)
		}
	}

	r.bwdBytesCurrBulk = 0
	r.bwdConsecutivePackets = 0
}

func (r *Record) updateFlags(flags uint8, direction Direction) {
	if flags&FlagFIN != 0 {
		r.FINFlagCount++
	}
	if flags&FlagSYN != 0 {
		r.SYNFlagCount++
	}
	if flags&FlagRST != 0 {
		r.RSTFlagCount++
	}
	if flags&FlagPSH != 0 {
		r.PSHFlagCount++
		if direction == Forward {
			r.FwdPSHFlags++
		} else {
			r.BwdPSHFlags++
		}
	}
	if flags&FlagACK != 0 {
		r.ACKFlagCount++
	}
	if flags&FlagURG != 0 {
		r.URGFlagCount++
		if direction == Forward {
			r.FwdURGFlags++
		} else {
			r.BwdURGFlags++
		}
	}
	if flags&FlagECE != 0 {
		r.ECEFlagCount++
	}
	if flags&FlagCWR != 0 {
		r.CWRFlagCount++
	}
}

func (r *Record) calculateDerived() {
	durationSeconds := float64(r.DurationMicros) / 1_000_000.0

	if durationSeconds > 0 {
		r.FlowPacketsPerSec = float64(r.TotalPackets) / durationSeconds
		r.FlowBytesPerSec = float64(r.TotalBytes) / durationSeconds
		r.FwdPacketsPerSec = float64(r.TotalFwdPackets) / durationSeconds
		r.BwdPacketsPerSec = float64(r.TotalBwdPackets) / durationSeconds
	}

	if r.TotalPackets > 0 {
		r.AvgPacketSize = float64(r.TotalBytes) / float64(r.TotalPackets)
	}
	if r.TotalFwdPackets > 0 {
		r.FwdSegmentSizeAvg = float64(r.TotalFwdBytes) / float64(r.TotalFwdPackets)
	}
	if r.TotalBwdPackets > 0 {
		r.BwdSegmentSizeAvg = float64(r.TotalBwdBytes) / float64(r.TotalBwdPackets)
	}
	if r.TotalFwdBytes > 0 {
		r.DownUpRatio = float64(r.TotalBwdBytes) / float64(r.TotalFwdBytes)
	}
}

// ShouldTerminate reports whether the flow must be closed given the
// current time and whether the triggering packet carried a FIN flag.
func (r *Record) ShouldTerminate(currentTime uint64, hasFIN bool) bool {
	if hasFIN {
		return true
	}
	return saturatingSub(currentTime, r.StartTimeMicros) > TimeoutMicros
}

// LastSeenMicros is the timestamp of the most recent packet folded into
// this flow; the engine uses it to decide when to expire the flow.
func (r *Record) LastSeenMicros() uint64 {
	return r.LastTimeMicros
}

// IsStale reports whether the flow has gone quiet for longer than
// TimeoutMicros as of currentTime. Unlike ShouldTerminate (which keys
// off the flow's start time on the per-packet path), this keys off the
// last packet actually seen, which is what the periodic expiry sweep
// needs: a long-lived but still-active flow must not be evicted just
// because it's outlived TimeoutMicros since it started.
func (r *Record) IsStale(currentTime uint64) bool {
	return saturatingSub(currentTime, r.LastSeenMicros()) > TimeoutMicros
}
