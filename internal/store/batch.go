package store

// MaxInValues is the backing store's cap on values per $in equality query.
// Every component that queries by a set of identifiers must batch in groups
// of at most this size and merge results.
const MaxInValues = 10

// BatchIDs splits ids into batches of at most size, preserving order.
// A size of zero or less falls back to MaxInValues.
func BatchIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = MaxInValues
	}
	if len(ids) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
