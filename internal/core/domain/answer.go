package domain

// Answer is generated text plus the chunks it was grounded on.
// Every citation in Text refers to a chunk id that was present in
// the retrieval result supplied to the generator; citations that
// could not be verified are stripped before the answer is returned.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Citations lists the chunks the answer is grounded on, in the
	// order they were supplied to the model.
	Citations []Chunk

	// LowConfidence is set when the model referenced chunk ids that
	// were not part of its evidence and those citations had to be
	// stripped, or when no citation could be verified at all.
	LowConfidence bool

	// Refusal is set when the answer states that the retrieved
	// evidence does not support a grounded response.
	Refusal bool
}

// CitedIDs returns the ids of all cited chunks.
func (a Answer) CitedIDs() []string {
	ids := make([]string, len(a.Citations))
	for i, c := range a.Citations {
		ids[i] = c.ID
	}
	return ids
}
