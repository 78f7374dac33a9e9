package classifier

import (
	"math"

	"github.com/alonsoveliz1/layton/flow"
)

// FeatureL1Count and FeatureL2Count are the exact input widths the binary
// and multiclass models were trained against. Field order matters as much
// as count: both extractors below must lay fields out in the same
// positions the training pipeline used.
const (
	FeatureL1Count = 48
	FeatureL2Count = 52
)

// asF32 mirrors the training pipeline's NaN/Inf guard: a flow field that
// never accumulated enough samples (e.g. a std-dev over a single packet)
// reports 0 instead of poisoning the whole feature vector.
func asF32(v float64) float32 {
	f := float32(v)
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
		return 0
	}
	return f
}

// ExtractL1 builds the binary (attack / not-attack) model's feature vector.
func ExtractL1(r *flow.Record) [FeatureL1Count]float32 {
	var out [FeatureL1Count]float32
	out[0] = float32(r.DurationMicros)
	out[1] = float32(r.TotalFwdBytes)
	out[2] = float32(r.TotalBwdBytes)
	out[3] = float32(r.FwdPacketLenMin())
	out[4] = asF32(r.FwdPacketLenStd())
	out[5] = float32(r.BwdPacketLenMax())
	out[6] = float32(r.BwdPacketLenMin())
	out[7] = asF32(r.FlowBytesPerSec)
	out[8] = asF32(r.FlowPacketsPerSec)
	out[9] = asF32(r.FlowIATMean())
	out[10] = asF32(r.FlowIATStd())
	out[11] = float32(r.FwdIATTotal())
	out[12] = asF32(r.FwdIATMean())
	out[13] = asF32(r.FwdIATStd())
	out[14] = float32(r.FwdIATMax())
	out[15] = float32(r.FwdIATMin())
	out[16] = float32(r.BwdIATTotal())
	out[17] = asF32(r.BwdIATMean())
	out[18] = asF32(r.BwdIATStd())
	out[19] = float32(r.FwdPSHFlags)
	out[20] = float32(r.FwdURGFlags)
	out[21] = float32(r.BwdHeaderBytes)
	out[22] = asF32(r.BwdPacketsPerSec)
	out[23] = float32(r.PacketLenMin())
	out[24] = float32(r.PacketLenMax())
	out[25] = asF32(r.PacketLenMean())
	out[26] = float32(r.FINFlagCount)
	out[27] = float32(r.SYNFlagCount)
	out[28] = float32(r.RSTFlagCount)
	out[29] = float32(r.PSHFlagCount)
	out[30] = float32(r.URGFlagCount)
	out[31] = float32(r.CWRFlagCount)
	out[32] = float32(r.ECEFlagCount)
	out[33] = asF32(r.DownUpRatio)
	out[34] = asF32(r.BwdBytesBulkAvg)
	out[35] = asF32(r.BwdPacketBulkAvg)
	out[36] = asF32(r.BwdBulkRateAvg)
	out[37] = float32(r.SubflowFwdPackets)
	out[38] = float32(r.SubflowFwdBytes)
	out[39] = float32(r.SubflowBwdPackets)
	out[40] = float32(r.FwdInitWinBytes)
	out[41] = float32(r.BwdInitWinBytes)
	out[42] = float32(r.FwdActDataPackets)
	out[43] = asF32(r.FwdSegSizeMin)
	out[44] = asF32(r.ActiveMean())
	out[45] = asF32(r.ActiveStd())
	out[46] = asF32(r.IdleStd())
	out[47] = float32(r.IdleMin())
	return out
}

// ExtractL2 builds the multiclass model's feature vector. It is only run
// for flows the binary model already flagged as an attack.
func ExtractL2(r *flow.Record) [FeatureL2Count]float32 {
	var out [FeatureL2Count]float32
	out[0] = float32(r.DurationMicros)
	out[1] = float32(r.TotalFwdPackets)
	out[2] = float32(r.FwdPacketLenMax())
	out[3] = float32(r.FwdPacketLenMin())
	out[4] = float32(r.BwdPacketLenMin())
	out[5] = asF32(r.BwdPacketLenMean())
	out[6] = asF32(r.BwdPacketLenStd())
	out[7] = asF32(r.FlowBytesPerSec)
	out[8] = asF32(r.FlowPacketsPerSec)
	out[9] = asF32(r.FlowIATMean())
	out[10] = asF32(r.FlowIATStd())
	out[11] = float32(r.FlowIATMax())
	out[12] = float32(r.FlowIATMin())
	out[13] = asF32(r.FwdIATMean())
	out[14] = asF32(r.FwdIATStd())
	out[15] = float32(r.FwdIATMin())
	out[16] = float32(r.BwdIATTotal())
	out[17] = asF32(r.BwdIATMean())
	out[18] = asF32(r.BwdIATStd())
	out[19] = float32(r.BwdIATMax())
	out[20] = float32(r.BwdIATMin())
	out[21] = float32(r.FwdPSHFlags)
	out[22] = float32(r.FwdURGFlags)
	out[23] = asF32(r.BwdPacketsPerSec)
	out[24] = float32(r.PacketLenMin())
	out[25] = float32(r.PacketLenMax())
	out[26] = float32(r.PacketLenVariance())
	out[27] = float32(r.FINFlagCount)
	out[28] = float32(r.SYNFlagCount)
	out[29] = float32(r.RSTFlagCount)
	out[30] = float32(r.PSHFlagCount)
	out[31] = float32(r.ACKFlagCount)
	out[32] = float32(r.URGFlagCount)
	out[33] = float32(r.CWRFlagCount)
	out[34] = float32(r.ECEFlagCount)
	out[35] = asF32(r.DownUpRatio)
	out[36] = float32(r.AvgPacketSize)
	out[37] = float32(r.FwdSegmentSizeAvg)
	out[38] = asF32(r.BwdBytesBulkAvg)
	out[39] = asF32(r.BwdPacketBulkAvg)
	out[40] = asF32(r.BwdBulkRateAvg)
	out[41] = float32(r.SubflowFwdPackets)
	out[42] = float32(r.SubflowFwdBytes)
	out[43] = float32(r.SubflowBwdPackets)
	out[44] = float32(r.SubflowBwdBytes)
	out[45] = float32(r.FwdInitWinBytes)
	out[46] = float32(r.BwdInitWinBytes)
	out[47] = float32(r.FwdActDataPackets)
	out[48] = asF32(r.FwdSegSizeMin)
	out[49] = asF32(r.ActiveStd())
	out[50] = float32(r.ActiveMax())
	out[51] = asF32(r.IdleStd())
	return out
}
