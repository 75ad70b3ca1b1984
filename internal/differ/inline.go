package differ

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Segment is a piece of a line, emphasized when it differs from the paired line
type Segment struct {
	Text       string
	Emphasized bool
}

// Inline computes character level emphasis between a deleted line and the
// inserted line replacing it.
func Inline(oldLine, newLine string) (oldSegments, newSegments []Segment) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldLine, newLine, false))

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldSegments = appendSegment(oldSegments, d.Text, false)
			newSegments = appendSegment(newSegments, d.Text, false)
		case diffmatchpatch.DiffDelete:
			oldSegments = appendSegment(oldSegments, d.Text, true)
		case diffmatchpatch.DiffInsert:
			newSegments = appendSegment(newSegments, d.Text, true)
		}
	}
	return oldSegments, newSegments
}

// appendSegment merges adjacent segments with the same emphasis
func appendSegment(segments []Segment, text string, emphasized bool) []Segment {
	if text == "" {
		return segments
	}
	if n := len(segments); n > 0 && segments[n-1].Emphasized == emphasized {
		segments[n-1].Text += text
		return segments
	}
	return append(segments, Segment{Text: text, Emphasized: emphasized})
}

// PairedSegments annotates every line of a hunk with inline emphasis. Within a
// run of deletions followed by insertions, the i-th deleted line is paired with
// the i-th inserted line; unpaired and context lines are a single plain segment.
func PairedSegments(h Hunk) [][]Segment {
	result := make([][]Segment, len(h.Lines))
	for i := 0; i < len(h.Lines); {
		if h.Lines[i].Op != OpDelete {
			result[i] = plain(h.Lines[i].Text)
			i++
			continue
		}

		delStart := i
		for i < len(h.Lines) && h.Lines[i].Op == OpDelete {
			i++
		}
		insStart := i
		for i < len(h.Lines) && h.Lines[i].Op == OpInsert {
			i++
		}
		deletes, inserts := insStart-delStart, i-insStart

		for k := 0; k < deletes; k++ {
			result[delStart+k] = plain(h.Lines[delStart+k].Text)
		}
		for k := 0; k < inserts; k++ {
			result[insStart+k] = plain(h.Lines[insStart+k].Text)
		}
		for k := 0; k < deletes && k < inserts; k++ {
			result[delStart+k], result[insStart+k] = Inline(h.Lines[delStart+k].Text, h.Lines[insStart+k].Text)
		}
	}
	return result
}

func plain(text string) []Segment {
	return []Segment{{Text: text}}
}
