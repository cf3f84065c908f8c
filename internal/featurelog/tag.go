package featurelog

// Tag is the transform decision recorded as the label of a dataset row.
type Tag string

const (
	TagDCT2DCT2 Tag = "DCT2_DCT2" // primary transform
	TagDCT8DCT8 Tag = "DCT8_DCT8"
	TagDCT8DST7 Tag = "DCT8_DST7"
	TagDST7DCT8 Tag = "DST7_DCT8"
	TagDST7DST7 Tag = "DST7_DST7"
	TagSkip     Tag = "SKIP" // transform skip, or no coded residual
	TagUnknown  Tag = "UNKNOWN"
)

// Encoder multiple-transform-selection indices, in the encoder's own
// enumeration order.
const (
	MTSDCT2DCT2 = 0
	MTSSkip     = 1
	MTSDST7DST7 = 2
	MTSDCT8DST7 = 3
	MTSDST7DCT8 = 4
	MTSDCT8DCT8 = 5
)

var mtsTags = map[int]Tag{
	MTSDCT2DCT2: TagDCT2DCT2,
	MTSSkip:     TagSkip,
	MTSDST7DST7: TagDST7DST7,
	MTSDCT8DST7: TagDCT8DST7,
	MTSDST7DCT8: TagDST7DCT8,
	MTSDCT8DCT8: TagDCT8DCT8,
}

// TagForMTS maps an encoder transform index to its tag. Unrecognised
// indices map to TagUnknown.
func TagForMTS(idx int) Tag {
	if t, ok := mtsTags[idx]; ok {
		return t
	}
	return TagUnknown
}

// Decision is what the encoder settled on for a block's residual.
type Decision struct {
	MTSIndex    int
	HasResidual bool
}

// Tag returns the label for d. Without a coded residual the transform
// index is meaningless and the block is labelled TagSkip.
func (d Decision) Tag() Tag {
	if !d.HasResidual {
		return TagSkip
	}
	return TagForMTS(d.MTSIndex)
}

// Tags lists every label in a stable order.
func Tags() []Tag {
	return []Tag{TagDCT2DCT2, TagDCT8DCT8, TagDCT8DST7, TagDST7DCT8, TagDST7DST7, TagSkip, TagUnknown}
}
