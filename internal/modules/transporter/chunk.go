package transporter

import "haulmatch/internal/types"

// chunkIDs splits ids into batches of at most size. The subscription
// collaborator only accepts bounded id lists, so every lookup goes through
// this rather than ad hoc slicing at call sites.
func chunkIDs(ids []types.ID, size int) [][]types.ID {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]types.ID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
