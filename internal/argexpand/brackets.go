package argexpand

// expandBrackets is stage 3, brace alternation (spec.md section 4.4). instr
// is marker-alphabet text.
func (e *Engine) expandBrackets(instr []rune, flags Flags, out *[]Completion, errs *ErrorList) Status {
	bracketCount := 0
	bracketBegin, bracketEnd := -1, -1
	lastSep := -1
	syntaxErr := false

	for pos := 0; pos < len(instr); pos++ {
		switch instr[pos] {
		case BracketBegin:
			if bracketCount == 0 {
				bracketBegin = pos
			}
			bracketCount++
		case BracketEnd:
			bracketCount--
			if bracketCount < 0 {
				syntaxErr = true
			} else if bracketCount == 0 {
				bracketEnd = pos
			}
		case BracketSep:
			if bracketCount == 1 {
				lastSep = pos
			}
		}
		if syntaxErr {
			break
		}
	}

	if !syntaxErr && bracketCount > 0 {
		if !flags.Has(ForCompletions) {
			syntaxErr = true
		} else {
			// Unmatched brace in completion mode: synthesize a closing
			// bracket and recurse. This path is known-quirky upstream
			// (never reliably worked); we preserve that behavior rather
			// than invent a smarter interpretation.
			var mod []rune
			if lastSep >= 0 {
				mod = append(mod, instr[:bracketBegin+1]...)
				mod = append(mod, instr[lastSep+1:]...)
				mod = append(mod, BracketEnd)
			} else {
				mod = append(mod, instr...)
				mod = append(mod, BracketEnd)
			}
			return e.expandBrackets(mod, ForCompletions, out, errs)
		}
	}

	if !syntaxErr && bracketBegin != -1 && bracketBegin+1 == bracketEnd {
		newstr := append([]rune{}, instr...)
		newstr[bracketBegin] = '{'
		newstr[bracketEnd] = '}'
		return e.expandBrackets(newstr, flags, out, errs)
	}

	if syntaxErr {
		errs.appendSyntax(0, "Mismatched brackets")
		return StatusError
	}

	if bracketBegin == -1 {
		appendCompletion(out, string(instr))
		return StatusOK
	}

	lenPreceding := bracketBegin
	itemBegin := bracketBegin + 1
	depth := 0
	for pos := bracketBegin + 1; ; pos++ {
		if depth == 0 && (instr[pos] == BracketSep || pos == bracketEnd) {
			itemLen := pos - itemBegin
			whole := make([]rune, 0, lenPreceding+itemLen+(len(instr)-bracketEnd-1))
			whole = append(whole, instr[:lenPreceding]...)
			whole = append(whole, instr[itemBegin:itemBegin+itemLen]...)
			whole = append(whole, instr[bracketEnd+1:]...)
			if res := e.expandBrackets(whole, flags, out, errs); res == StatusError {
				return StatusError
			}
			itemBegin = pos + 1
			if pos == bracketEnd {
				break
			}
			continue
		}
		if instr[pos] == BracketBegin {
			depth++
		} else if instr[pos] == BracketEnd {
			depth--
		}
	}
	return StatusOK
}
