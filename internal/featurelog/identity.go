package featurelog

import (
	"strconv"
	"strings"
)

// ChannelType separates luma and chroma blocks that share coordinates.
type ChannelType int

const (
	ChannelLuma   ChannelType = 0
	ChannelChroma ChannelType = 1
)

// Identity locates one coding block. Seq disambiguates repeated
// predictions of the same block when the caller needs to keep them apart;
// zero means "not used".
type Identity struct {
	POC     int
	X, Y    int
	Width   int
	Height  int
	Channel ChannelType
	Seq     uint32
}

// Key correlates StartRecord with CloseRecord.
type Key string

// NoKey is returned when nothing was recorded.
const NoKey Key = ""

// Key renders the composite identity as poc_x_y_w_h_ch[_sSeq].
func (id Identity) Key() Key {
	var b strings.Builder
	b.Grow(32)
	for i, v := range []int{id.POC, id.X, id.Y, id.Width, id.Height, int(id.Channel)} {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strconv.Itoa(v))
	}
	if id.Seq != 0 {
		b.WriteString("_s")
		b.WriteString(strconv.FormatUint(uint64(id.Seq), 10))
	}
	return Key(b.String())
}
