package shares

import "fmt"

// SplitFields splits a field-keyed mapping of already padded buffers into two
// share mappings with identical key sets. Every field gets its own fresh
// random pad.
func (c *Codec) SplitFields(fields map[string][]byte) (sharesA, sharesB map[string][]byte, err error) {
	sharesA = make(map[string][]byte, len(fields))
	sharesB = make(map[string][]byte, len(fields))
	for key, plain := range fields {
		a, b, splitErr := c.Split(plain)
		if splitErr != nil {
			return nil, nil, fmt.Errorf("failed to split field %q: %w", key, splitErr)
		}
		sharesA[key] = a
		sharesB[key] = b
	}
	return sharesA, sharesB, nil
}

// MergeFields is the inverse of SplitFields: it combines two share mappings
// back into padded buffers. Keys present in only one mapping are omitted from
// the result, matching the partial-presence behavior of a two-channel load.
func (c *Codec) MergeFields(sharesA, sharesB map[string][]byte) (map[string][]byte, error) {
	fields := make(map[string][]byte, len(sharesA))
	for key, a := range sharesA {
		b, ok := sharesB[key]
		if !ok {
			continue
		}
		plain, err := c.Combine(a, b)
		if err != nil {
			return nil, fmt.Errorf("failed to merge field %q: %w", key, err)
		}
		fields[key] = plain
	}
	return fields, nil
}
