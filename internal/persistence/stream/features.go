package stream

// FeatureTable is the stream's advertised optional-capability set: feature id
// mapped to an integer value. Absent ids mean the capability is not carried.
type FeatureTable map[string]uint32

// Pred gates a descriptor on the feature table independent of the raw
// version number.
type Pred interface {
	eval(ft FeatureTable) bool
}

type featureAtLeast struct {
	id  string
	min uint32
}

type featureAbsent struct {
	id string
}

type allOf []Pred

type anyOf []Pred

// FeatureAtLeast is true when the stream carries id with value >= min.
func FeatureAtLeast(id string, min uint32) Pred { return featureAtLeast{id, min} }

// FeatureAbsent is true when the stream does not carry id at all.
func FeatureAbsent(id string) Pred { return featureAbsent{id} }

func All(ps ...Pred) Pred { return allOf(ps) }
func Any(ps ...Pred) Pred { return anyOf(ps) }

func (p featureAtLeast) eval(ft FeatureTable) bool {
	v, ok := ft[p.id]
	return ok && v >= p.min
}

func (p featureAbsent) eval(ft FeatureTable) bool {
	_, ok := ft[p.id]
	return !ok
}

func (ps allOf) eval(ft FeatureTable) bool {
	for _, p := range ps {
		if !p.eval(ft) {
			return false
		}
	}
	return true
}

func (ps anyOf) eval(ft FeatureTable) bool {
	for _, p := range ps {
		if p.eval(ft) {
			return true
		}
	}
	return false
}
