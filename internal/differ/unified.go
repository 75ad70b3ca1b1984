package differ

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines kept around each change
const DefaultContext = 5

// Operation is the kind of a diff line
type Operation int

const (
	OpEqual Operation = iota
	OpDelete
	OpInsert
)

// Prefix returns the unified diff marker of the operation
func (o Operation) Prefix() string {
	switch o {
	case OpDelete:
		return "-"
	case OpInsert:
		return "+"
	default:
		return " "
	}
}

// Line is one line of a hunk. Text has no line terminator.
type Line struct {
	Op             Operation
	Text           string
	OldIndex       int // -1 for insertions
	NewIndex       int // -1 for deletions
	MissingNewline bool
}

// Hunk is a group of changes with surrounding context.
// Starts are 0-based line offsets.
type Hunk struct {
	OldStart int
	OldLen   int
	NewStart int
	NewLen   int
	Lines    []Line
}

// Header renders the hunk range line
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLen, h.NewStart, h.NewLen)
}

// diffOp is a run of lines with a single operation
type diffOp struct {
	op       Operation
	oldIndex int
	oldLen   int
	newIndex int
	newLen   int
}

// Unified computes line based hunks between oldText and newText, keeping
// context unchanged lines around each change. Equal runs longer than
// 2*context split hunks. Identical inputs yield no hunks.
func Unified(oldText, newText string, context int) []Hunk {
	if context < 0 {
		context = 0
	}

	ops := lineOps(oldText, newText)
	groups := groupOps(ops, context)
	if len(groups) == 0 {
		return nil
	}

	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	hunks := make([]Hunk, 0, len(groups))
	for _, group := range groups {
		first, last := group[0], group[len(group)-1]
		hunk := Hunk{
			OldStart: first.oldIndex,
			OldLen:   last.oldIndex + last.oldLen - first.oldIndex,
			NewStart: first.newIndex,
			NewLen:   last.newIndex + last.newLen - first.newIndex,
		}
		for _, op := range group {
			hunk.Lines = append(hunk.Lines, opLines(op, oldLines, newLines)...)
		}
		hunks = append(hunks, hunk)
	}
	return hunks
}

// Render returns the text form of hunks: a header line followed by prefixed lines.
// Every line is terminated, including a last line that had no newline.
func Render(hunks []Hunk) string {
	var b strings.Builder
	for _, h := range hunks {
		b.WriteString(h.Header())
		b.WriteByte('\n')
		for _, line := range h.Lines {
			b.WriteString(line.Op.Prefix())
			b.WriteString(line.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// lineOps runs a line mode diff and converts it to index ranges
func lineOps(oldText, newText string) []diffOp {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lineArray)

	var ops []diffOp
	oldIndex, newIndex := 0, 0
	for _, d := range diffs {
		n := countLines(d.Text)
		if n == 0 {
			continue
		}
		op := diffOp{oldIndex: oldIndex, newIndex: newIndex}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op.op, op.oldLen, op.newLen = OpEqual, n, n
		case diffmatchpatch.DiffDelete:
			op.op, op.oldLen = OpDelete, n
		case diffmatchpatch.DiffInsert:
			op.op, op.newLen = OpInsert, n
		}
		oldIndex += op.oldLen
		newIndex += op.newLen
		ops = append(ops, op)
	}
	return ops
}

// groupOps splits ops into hunks with n lines of context
func groupOps(ops []diffOp, n int) [][]diffOp {
	if len(ops) == 0 {
		return nil
	}

	if first := &ops[0]; first.op == OpEqual && first.oldLen > n {
		offset := first.oldLen - n
		first.oldIndex += offset
		first.newIndex += offset
		first.oldLen, first.newLen = n, n
	}
	if last := &ops[len(ops)-1]; last.op == OpEqual && last.oldLen > n {
		last.oldLen, last.newLen = n, n
	}

	var groups [][]diffOp
	var pending []diffOp
	for _, op := range ops {
		if op.op == OpEqual && op.oldLen > 2*n {
			pending = append(pending, diffOp{op: OpEqual, oldIndex: op.oldIndex, newIndex: op.newIndex, oldLen: n, newLen: n})
			groups = append(groups, pending)
			offset := op.oldLen - n
			pending = []diffOp{{
				op:       OpEqual,
				oldIndex: op.oldIndex + offset,
				newIndex: op.newIndex + offset,
				oldLen:   n,
				newLen:   n,
			}}
			continue
		}
		pending = append(pending, op)
	}

	if len(pending) > 1 || (len(pending) == 1 && pending[0].op != OpEqual) {
		groups = append(groups, pending)
	}
	return groups
}

func opLines(op diffOp, oldLines, newLines []string) []Line {
	var lines []Line
	switch op.op {
	case OpEqual:
		for i := 0; i < op.oldLen; i++ {
			lines = append(lines, newLine(OpEqual, oldLines[op.oldIndex+i], op.oldIndex+i, op.newIndex+i))
		}
	case OpDelete:
		for i := 0; i < op.oldLen; i++ {
			lines = append(lines, newLine(OpDelete, oldLines[op.oldIndex+i], op.oldIndex+i, -1))
		}
	case OpInsert:
		for i := 0; i < op.newLen; i++ {
			lines = append(lines, newLine(OpInsert, newLines[op.newIndex+i], -1, op.newIndex+i))
		}
	}
	return lines
}

func newLine(op Operation, raw string, oldIndex, newIndex int) Line {
	text, found := strings.CutSuffix(raw, "\n")
	return Line{Op: op, Text: text, OldIndex: oldIndex, NewIndex: newIndex, MissingNewline: !found}
}

// splitLines splits s keeping line terminators
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func countLines(s string) int {
	n := strings.Count(s, "\n")
	if s != "" && !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
