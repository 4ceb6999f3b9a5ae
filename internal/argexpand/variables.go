package argexpand

import "unicode"

func isValidVarNameChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (e *Engine) onMainThread() bool {
	return e.MainThread == nil || e.MainThread.IsMainThread()
}

// expandVariables resolves $name / $name[slice] / $"name" references within
// instr, working right-to-left from lastIdx by recursion on a shrinking
// prefix (spec.md section 4.2). Each value of a normal expansion is expanded
// as its own branch and the branches are interleaved, so the cartesian
// product varies the leftmost variable slowest. instr is already in the
// marker alphabet.
func (e *Engine) expandVariables(instr []rune, out *[]Completion, lastIdx int, errs *ErrorList) bool {
	insize := len(instr)
	if lastIdx == 0 {
		appendCompletion(out, string(instr))
		return true
	}

	isSingle := false
	varexpIdx := lastIdx
	found := false
	for varexpIdx > 0 {
		varexpIdx--
		c := instr[varexpIdx]
		if c == VariableExpand || c == VariableExpandSingle {
			isSingle = c == VariableExpandSingle
			found = true
			break
		}
	}
	if !found {
		appendCompletion(out, string(instr))
		return true
	}

	varNameStart := varexpIdx + 1
	varNameStop := varNameStart
	if varNameStop < insize && instr[varNameStop] == VariableExpandEmpty {
		varNameStop++
	} else {
		for varNameStop < insize && isValidVarNameChar(instr[varNameStop]) {
			varNameStop++
		}
	}
	if varNameStop == varNameStart {
		errs.appendSyntax(varexpIdx, "Invalid variable name")
		return false
	}

	varName := string(instr[varNameStart:varNameStop])

	var values []string
	haveVar := false
	isHistory := false
	switch {
	case varName == "history":
		if e.History != nil && e.onMainThread() {
			isHistory = true
			haveVar = true
		}
	case varName == string(VariableExpandEmpty):
		// the captured "name" was itself a chained $$ placeholder; never a
		// real variable.
	default:
		if v, ok := e.Env.Get(varName); ok {
			values = v
			haveVar = true
		}
	}

	varNameAndSliceStop := varNameStop
	allValues := true
	var idxList []SliceIndex
	if varNameStop < insize && instr[varNameStop] == '[' {
		allValues = false
		effectiveSize := 1
		if haveVar {
			if isHistory {
				effectiveSize = e.History.Size()
			} else {
				effectiveSize = len(values)
			}
		}
		endPos, parsed, perr := parseSlice(instr[varNameStop:], effectiveSize)
		if perr != nil {
			se := perr.(*sliceError)
			errs.appendSyntax(varNameStop+se.pos, "Invalid index value")
			return false
		}
		idxList = parsed
		varNameAndSliceStop = varNameStop + endPos
	}

	if !haveVar {
		if !isSingle {
			return true
		}
		res := append([]rune{}, instr[:varexpIdx]...)
		if len(res) > 0 && res[len(res)-1] == VariableExpandSingle {
			res = append(res, VariableExpandEmpty)
		}
		res = append(res, instr[varNameAndSliceStop:]...)
		return e.expandVariables(res, out, varexpIdx, errs)
	}

	var items []string
	if allValues {
		if isHistory {
			items = e.History.All()
		} else {
			items = values
		}
	} else if isHistory {
		idxs := make([]int, len(idxList))
		for i, s := range idxList {
			idxs[i] = s.Index
		}
		m := e.History.ItemsAtIndexes(idxs)
		for _, s := range idxList {
			if v, ok := m[s.Index]; ok {
				items = append(items, v)
			}
		}
	} else {
		for _, s := range idxList {
			if s.Index >= 1 && s.Index <= len(values) {
				items = append(items, values[s.Index-1])
			}
		}
	}

	if isSingle {
		res := append([]rune{}, instr[:varexpIdx]...)
		if len(res) > 0 {
			if res[len(res)-1] != VariableExpandSingle {
				res = append(res, InternalSeparator)
			} else if len(items) == 0 || items[0] == "" {
				res = append(res, VariableExpandEmpty)
			}
		}
		if len(items) > 0 {
			joined := joinSpace(items)
			res = append(res, []rune(joined)...)
		}
		res = append(res, instr[varNameAndSliceStop:]...)
		return e.expandVariables(res, out, varexpIdx, errs)
	}

	branches := make([][]Completion, 0, len(items))
	for _, item := range items {
		var branch []Completion
		if varexpIdx == 0 && varNameAndSliceStop == insize {
			appendCompletion(&branch, item)
			branches = append(branches, branch)
			continue
		}
		newIn := append([]rune{}, instr[:varexpIdx]...)
		if len(newIn) > 0 {
			if newIn[len(newIn)-1] != VariableExpand {
				newIn = append(newIn, InternalSeparator)
			} else if item == "" {
				newIn = append(newIn, VariableExpandEmpty)
			}
		}
		newIn = append(newIn, []rune(item)...)
		newIn = append(newIn, instr[varNameAndSliceStop:]...)
		if !e.expandVariables(newIn, &branch, varexpIdx, errs) {
			return false
		}
		branches = append(branches, branch)
	}
	// Interleave the per-value branches so the leftmost variable varies
	// slowest: $a$b yields, for each a, each b.
	for i := 0; ; i++ {
		emitted := false
		for _, branch := range branches {
			if i < len(branch) {
				*out = append(*out, branch[i])
				emitted = true
			}
		}
		if !emitted {
			return true
		}
	}
}

func joinSpace(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
