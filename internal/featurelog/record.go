package featurelog

import (
	"strconv"

	"github.com/banshee-data/blockfeatures/internal/blockfeat"
	"github.com/banshee-data/blockfeatures/internal/geometry"
)

// TagColumn is the header of the label column.
const TagColumn = "Transform"

var identityColumns = []string{"POC", "X", "Y", "W", "H", "QP"}

// Header returns the dataset column names: block geometry, QP, every
// feature, the geometry codes and finally the decision tag.
func Header() []string {
	h := make([]string, 0, len(identityColumns)+len(blockfeat.Columns())+len(geometry.Columns())+1)
	h = append(h, identityColumns...)
	h = append(h, blockfeat.Columns()...)
	h = append(h, geometry.Columns()...)
	return append(h, TagColumn)
}

// pendingRecord is the serialised row prefix held between prediction and
// decision. It is never modified after creation.
type pendingRecord struct {
	bucket string
	fields []string
}

// CompletedRecord is a pending row with its decision tag appended.
type CompletedRecord struct {
	Fields []string
	Tag    Tag
}

// Row returns the full CSV row.
func (r CompletedRecord) Row() []string {
	row := make([]string, 0, len(r.Fields)+1)
	row = append(row, r.Fields...)
	return append(row, string(r.Tag))
}

func newPendingRecord(id Identity, qp int, fv *blockfeat.FeatureVector) pendingRecord {
	vals := fv.Values()
	code := geometry.Classify(id.Width, id.Height)

	fields := make([]string, 0, len(identityColumns)+len(vals)+4)
	for _, v := range []int{id.POC, id.X, id.Y, id.Width, id.Height, qp} {
		fields = append(fields, strconv.Itoa(v))
	}
	for _, v := range vals {
		fields = append(fields, blockfeat.FormatValue(v))
	}
	for _, v := range code.Values() {
		fields = append(fields, strconv.Itoa(v))
	}
	return pendingRecord{
		bucket: geometry.Bucket(id.Width, id.Height),
		fields: fields,
	}
}
