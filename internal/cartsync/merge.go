package cartsync

// Merge folds an incoming line into an existing list while keeping one line
// per (product, size) key. Matching keys accumulate quantity in place so the
// relative order of untouched lines never changes; a new key is appended at
// the end. Duplicate keys already present in the input collapse into the
// first occurrence. The result carries no server line IDs because it is
// meant to be sent back as a replace payload.
func Merge(existing []Line, incoming Line) []Line {
	result := make([]Line, 0, len(existing)+1)
	index := make(map[MergeKey]int, len(existing)+1)

	for _, line := range existing {
		if line.ProductID == 0 {
			continue
		}
		key := line.Key()
		if at, ok := index[key]; ok {
			result[at].Quantity += line.Quantity
			continue
		}
		index[key] = len(result)
		result = append(result, Line{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Size:      line.Size,
		})
	}

	key := incoming.Key()
	if at, ok := index[key]; ok {
		result[at].Quantity += incoming.Quantity
		return result
	}
	return append(result, Line{
		ProductID: incoming.ProductID,
		Quantity:  incoming.Quantity,
		Size:      incoming.Size,
	})
}
