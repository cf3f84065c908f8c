// Package geometry buckets coding-block dimensions into the coarse
// categorical codes stored alongside every dataset row.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Orientation of a block's long side.
type Orientation int

const (
	Square     Orientation = 0
	Horizontal Orientation = 1 // wider than tall
	Vertical   Orientation = 2
)

func (o Orientation) String() string {
	switch o {
	case Square:
		return "square"
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// AspectRatio is the long:short side class of a block.
type AspectRatio int

const (
	Ratio1to1 AspectRatio = iota
	Ratio2to1
	Ratio4to1
	Ratio8to1
	Ratio16to1
	Ratio32to1
	RatioOther
)

// aspectTolerance is how far long/short may be from an exact class ratio.
const aspectTolerance = 0.01

var aspectClasses = []struct {
	ratio float64
	class AspectRatio
}{
	{1, Ratio1to1},
	{2, Ratio2to1},
	{4, Ratio4to1},
	{8, Ratio8to1},
	{16, Ratio16to1},
	{32, Ratio32to1},
}

func (a AspectRatio) String() string {
	switch a {
	case Ratio1to1:
		return "1:1"
	case Ratio2to1:
		return "2:1"
	case Ratio4to1:
		return "4:1"
	case Ratio8to1:
		return "8:1"
	case Ratio16to1:
		return "16:1"
	case Ratio32to1:
		return "32:1"
	default:
		return "other"
	}
}

// Code is the set of categorical geometry codes for one block.
type Code struct {
	SizeGroup   int // 4, 8, 16, 32, 64 or 128
	Area        int
	Orientation Orientation
	AspectRatio AspectRatio
}

// Columns are the CSV column names of a Code, in Values order.
func Columns() []string {
	return []string{"SizeGroup", "Area", "Orientation", "AspectRatioIdx"}
}

// Values returns the codes as integers in Columns order.
func (c Code) Values() []int {
	return []int{c.SizeGroup, c.Area, int(c.Orientation), int(c.AspectRatio)}
}

// Classify maps block dimensions to their codes. It is total: degenerate
// sizes fall into the smallest size group and the "other" aspect class.
func Classify(w, h int) Code {
	return Code{
		SizeGroup:   SizeGroup(w, h),
		Area:        w * h,
		Orientation: OrientationOf(w, h),
		AspectRatio: AspectRatioOf(w, h),
	}
}

// SizeGroup buckets a block by its longest side. Anything at or above 128
// is 128; sides that are not one of the coding sizes fall back to 4.
func SizeGroup(w, h int) int {
	m := max(w, h)
	switch {
	case m >= 128:
		return 128
	case m == 64, m == 32, m == 16, m == 8:
		return m
	default:
		return 4
	}
}

// OrientationOf reports whether a block is square, wide or tall.
func OrientationOf(w, h int) Orientation {
	switch {
	case w == h:
		return Square
	case w > h:
		return Horizontal
	default:
		return Vertical
	}
}

// AspectRatioOf classifies long/short against the power-of-two ratios.
func AspectRatioOf(w, h int) AspectRatio {
	short := min(w, h)
	if short <= 0 {
		return RatioOther
	}
	ratio := float64(max(w, h)) / float64(short)
	for _, ac := range aspectClasses {
		if math.Abs(ratio-ac.ratio) < aspectTolerance {
			return ac.class
		}
	}
	return RatioOther
}

// Bucket is the reservoir label of a block size, e.g. "16x8".
func Bucket(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}

// ParseBucket is the inverse of Bucket.
func ParseBucket(label string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(label, "x")
	if ok {
		w, err = strconv.Atoi(ws)
		if err == nil {
			h, err = strconv.Atoi(hs)
		}
	}
	if !ok || err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid bucket label %q", label)
	}
	return w, h, nil
}
