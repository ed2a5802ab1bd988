package intel

// Aggregate is the conversation-level union of every Record seen so far.
// It has the same shape as a Record and changes only through Merge.
type Aggregate struct {
	Record
}

// NewAggregate returns an empty aggregate for a new conversation.
func NewAggregate() Aggregate {
	return Aggregate{Record: EmptyRecord()}
}

// Merge returns the union of the aggregate and the record. It is
// idempotent and commutative per category, so overlapping re-extractions
// collapse without the caller tracking what was already processed.
func Merge(agg Aggregate, rec Record) Aggregate {
	return Aggregate{Record: Union(agg.Record, rec)}
}

// Union combines any number of records into one.
func Union(records ...Record) Record {
	b := newBuilder()
	for _, r := range records {
		b.addRecord(r)
	}
	return b.build()
}

// Diff returns the values present in after but not in before. Callers use
// it to announce only newly discovered identifiers after a merge.
func Diff(before, after Record) Record {
	b := newBuilder()
	for c, vs := range after.sets {
		for _, v := range vs {
			if !before.Contains(c, v) {
				b.add(c, v)
			}
		}
	}
	return b.build()
}
