package domain

import "sort"

// PickCreatable copies the creatable subset of a create payload. Unknown keys
// are dropped silently; the create path never rejects on extra fields.
func PickCreatable(payload Document) Document {
	out := make(Document, len(payload))
	for _, k := range CreateFields {
		if v, ok := payload[k]; ok {
			out[k] = v
		}
	}
	return out
}

// PickMutable returns the subset of an update payload restricted to the
// mutable field set.
func PickMutable(payload Document) Document {
	out := make(Document, len(payload))
	for k, v := range payload {
		if _, ok := MutableFields[k]; ok {
			out[k] = v
		}
	}
	return out
}

// EnsureNoImmutable rejects an update payload that names any immutable field,
// listing every offending key. Runs before anything touches storage.
func EnsureNoImmutable(payload Document) error {
	var invalid []string
	for k := range payload {
		if _, ok := ImmutableFields[k]; ok {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return errImmutable(invalid)
	}
	return nil
}
