package flow

// The accessors below expose the running welford/IAT accumulators as
// plain numeric features, named after the quantities they report rather
// than their storage. classifier/features.go reads a flow exclusively
// through these.

func (r *Record) FwdPacketLenMin() float64  { return r.fwdPacketLen.minOrZero() }
func (r *Record) FwdPacketLenMax() float64  { return r.fwdPacketLen.maxOrZero() }
func (r *Record) FwdPacketLenMean() float64 { return r.fwdPacketLen.mean }
func (r *Record) FwdPacketLenStd() float64  { return r.fwdPacketLen.std() }

func (r *Record) BwdPacketLenMin() float64  { return r.bwdPacketLen.minOrZero() }
func (r *Record) BwdPacketLenMax() float64  { return r.bwdPacketLen.maxOrZero() }
func (r *Record) BwdPacketLenMean() float64 { return r.bwdPacketLen.mean }
func (r *Record) BwdPacketLenStd() float64  { return r.bwdPacketLen.std() }

func (r *Record) PacketLenMin() float64      { return r.packetLen.minOrZero() }
func (r *Record) PacketLenMax() float64      { return r.packetLen.maxOrZero() }
func (r *Record) PacketLenMean() float64     { return r.packetLen.mean }
func (r *Record) PacketLenStd() float64      { return r.packetLen.std() }
func (r *Record) PacketLenVariance() float64 { return r.packetLen.variance() }

func (r *Record) FlowIATMean() float64 { return r.flowIAT.mean }
func (r *Record) FlowIATStd() float64  { return r.flowIAT.std() }
func (r *Record) FlowIATMin() float64  { return r.flowIAT.minOrZero() }
func (r *Record) FlowIATMax() float64  { return r.flowIAT.maxOrZero() }

func (r *Record) FwdIATTotal() float64 { return r.fwdIAT.total }
func (r *Record) FwdIATMean() float64  { return r.fwdIAT.mean }
func (r *Record) FwdIATStd() float64   { return r.fwdIAT.std(r.TotalFwdPackets) }
func (r *Record) FwdIATMin() float64   { return r.fwdIAT.minOrZero() }
func (r *Record) FwdIATMax() float64   { return r.fwdIAT.maxOrZero() }

func (r *Record) BwdIATTotal() float64 { return r.bwdIAT.total }
func (r *Record) BwdIATMean() float64  { return r.bwdIAT.mean }
func (r *Record) BwdIATStd() float64   { return r.bwdIAT.std(r.TotalBwdPackets) }
func (r *Record) BwdIATMin() float64   { return r.bwdIAT.minOrZero() }
func (r *Record) BwdIATMax() float64   { return r.bwdIAT.maxOrZero() }

func (r *Record) ActiveMean() float64 { return r.activeTime.mean }
func (r *Record) ActiveStd() float64  { return r.activeTime.std() }
func (r *Record) ActiveMax() float64  { return r.activeTime.maxOrZero() }

func (r *Record) IdleStd() float64 { return r.idleTime.std() }
func (r *Record) IdleMin() float64 { return r.idleTime.minOrZero() }

func (r *Record) NumFwdBulkTransmissions() uint64 { return r.numFwdBulkTransmissions }
func (r *Record) NumBwdBulkTransmissions() uint64 { return r.numBwdBulkTransmissions }
