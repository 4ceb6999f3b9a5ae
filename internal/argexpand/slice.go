package argexpand

import "strconv"

// SliceIndex pairs a resolved 1-based index with its source position, used
// for diagnostics when the index is later found out of range.
type SliceIndex struct {
	Index     int
	SourcePos int
}

// sliceError carries the rune position within the slice text that a parse
// failure occurred at.
type sliceError struct{ pos int }

func (e *sliceError) Error() string { return "invalid index value" }

// parseSlice parses an array slicing specification beginning at in[0] ==
// '['. It returns the rune offset immediately following the closing ']' and
// the resolved indices. size is the effective length of the thing being
// sliced (spec.md section 4.2: 1 when the underlying variable is missing).
func parseSlice(in []rune, size int) (endPos int, idx []SliceIndex, err error) {
	pos := 1 // past the opening '['
	for {
		for pos < len(in) && (isSliceSpace(in[pos]) || in[pos] == InternalSeparator) {
			pos++
		}
		if pos >= len(in) {
			return 0, nil, &sliceError{pos}
		}
		if in[pos] == ']' {
			pos++
			break
		}

		i1SrcPos := pos
		tmp, next, ok := parseSliceLong(in, pos)
		if !ok {
			return 0, nil, &sliceError{pos}
		}
		i1 := tmp
		if tmp <= -1 {
			i1 = size + tmp + 1
		}
		pos = next
		for pos < len(in) && in[pos] == InternalSeparator {
			pos++
		}

		if pos+1 < len(in) && in[pos] == '.' && in[pos+1] == '.' {
			pos += 2
			for pos < len(in) && in[pos] == InternalSeparator {
				pos++
			}
			numberStart := pos
			tmp2, next2, ok2 := parseSliceLong(in, pos)
			if !ok2 {
				return 0, nil, &sliceError{pos}
			}
			pos = next2
			i2 := tmp2
			if tmp2 <= -1 {
				i2 = size + tmp2 + 1
			}

			if i1 > size && i2 > size {
				continue
			}
			if i1 > size {
				i1 = size
			}
			if i2 > size {
				i2 = size
			}

			direction := 1
			if i2 < i1 {
				direction = -1
			}
			for j := i1; j*direction <= i2*direction; j += direction {
				idx = append(idx, SliceIndex{Index: j, SourcePos: numberStart})
			}
			continue
		}

		idx = append(idx, SliceIndex{Index: i1, SourcePos: i1SrcPos})
	}
	return pos, idx, nil
}

func isSliceSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }

// parseSliceLong parses a leading signed integer at in[pos:], in the manner
// of fish_wcstol: trailing non-digit characters are left unconsumed, not an
// error. Returns ok=false if no digits were found at all.
func parseSliceLong(in []rune, pos int) (value int, next int, ok bool) {
	start := pos
	neg := false
	if pos < len(in) && (in[pos] == '+' || in[pos] == '-') {
		neg = in[pos] == '-'
		pos++
	}
	digitsStart := pos
	for pos < len(in) && in[pos] >= '0' && in[pos] <= '9' {
		pos++
	}
	if pos == digitsStart {
		return 0, start, false
	}
	n, convErr := strconv.Atoi(string(in[digitsStart:pos]))
	if convErr != nil {
		return 0, start, false
	}
	if neg {
		n = -n
	}
	return n, pos, true
}
