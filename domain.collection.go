package main

import "encoding/json"

// CollectionState partitions an owner's books into one ordered bucket per
// status. The bucket array is fixed-size so all four shelves exist at all
// times, empty or not. A record id lives in exactly one bucket and that
// bucket always matches the record's own Status field: the only mutators
// below preserve both invariants.
type CollectionState struct {
	buckets [NumBookStatuses][]BookRecord
}

// NewCollectionState returns a state with four empty shelves.
func NewCollectionState() *CollectionState {
	cs := &CollectionState{}
	for i := range cs.buckets {
		cs.buckets[i] = []BookRecord{}
	}
	return cs
}

// PartitionRecords groups raw store rows into a fresh state, preserving
// the order rows were returned in. A row carrying a status outside the
// closed set poisons the whole partition.
func PartitionRecords(records []BookRecord) (*CollectionState, error) {
	cs := NewCollectionState()
	for _, record := range records {
		if _, err := ParseBookStatus(string(record.Status)); err != nil {
			return nil, err
		}
		cs.append(record)
	}
	return cs, nil
}

// Bucket returns the shelf for the given status. Callers must treat the
// returned slice as read-only.
func (cs *CollectionState) Bucket(status BookStatus) []BookRecord {
	if i, ok := statusIndex(status); ok {
		return cs.buckets[i]
	}
	return nil
}

// Total counts records across all shelves.
func (cs *CollectionState) Total() int {
	total := 0
	for i := range cs.buckets {
		total += len(cs.buckets[i])
	}
	return total
}

// find locates a record by id on the given shelf.
func (cs *CollectionState) find(status BookStatus, bookID string) (BookRecord, bool) {
	for _, record := range cs.Bucket(status) {
		if record.ID == bookID {
			return record, true
		}
	}
	return BookRecord{}, false
}

// append adds a record to the end of the shelf named by its own status.
func (cs *CollectionState) append(record BookRecord) {
	if i, ok := statusIndex(record.Status); ok {
		cs.buckets[i] = append(cs.buckets[i], record)
	}
}

// transition removes every occurrence of the record's id and appends the
// updated record to the end of its new shelf. Callers serialize access so
// the remove+append pair is observed as a single state change.
func (cs *CollectionState) transition(record BookRecord) {
	for i := range cs.buckets {
		bucket := cs.buckets[i][:0]
		for _, r := range cs.buckets[i] {
			if r.ID != record.ID {
				bucket = append(bucket, r)
			}
		}
		cs.buckets[i] = bucket
	}
	cs.append(record)
}

// clone returns a deep copy safe to hand to another goroutine.
func (cs *CollectionState) clone() *CollectionState {
	out := &CollectionState{}
	for i := range cs.buckets {
		bucket := make([]BookRecord, len(cs.buckets[i]))
		copy(bucket, cs.buckets[i])
		out.buckets[i] = bucket
	}
	return out
}

// MarshalJSON renders the state as a map keyed by status. All four keys
// are always present, mapping to arrays (never null).
func (cs *CollectionState) MarshalJSON() ([]byte, error) {
	shelves := make(map[BookStatus][]BookRecord, NumBookStatuses)
	for i, status := range AllBookStatuses {
		shelves[status] = cs.buckets[i]
	}
	return json.Marshal(shelves)
}
