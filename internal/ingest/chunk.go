package ingest

import "strings"

// ChunkWords splits text into overlapping windows of whitespace-separated
// words. The stride is size-overlap, so consecutive chunks share `overlap`
// words. size must be larger than overlap; callers get a single chunk for
// text shorter than one window.
func ChunkWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if size <= 0 {
		size = 400
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	stride := size - overlap
	chunks := make([]string, 0, (len(words)+stride-1)/stride)
	for i := 0; i < len(words); i += stride {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
