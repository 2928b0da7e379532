package query

import "strings"

// filters holds the parsed path:/-path:/ext:/-ext: tokens from a query
// string (spec §4.7 "Query-filter grammar"), applied after BM25 scoring.
type filters struct {
	pathInclude []string
	pathExclude []string
	extInclude  []string
	extExclude  []string
}

// parseQuery splits raw into filter tokens and the remaining BM25 query
// text. Tokens are whitespace-separated; everything that isn't a
// recognized filter prefix is passed through as a BM25 term.
func parseQuery(raw string) (filters, string) {
	var f filters
	var terms []string

	for _, tok := range strings.Fields(raw) {
		switch {
		case strings.HasPrefix(tok, "-path:"):
			f.pathExclude = append(f.pathExclude, strings.TrimPrefix(tok, "-path:"))
		case strings.HasPrefix(tok, "path:"):
			f.pathInclude = append(f.pathInclude, strings.TrimPrefix(tok, "path:"))
		case strings.HasPrefix(tok, "-ext:"):
			f.extExclude = append(f.extExclude, normalizeExt(strings.TrimPrefix(tok, "-ext:")))
		case strings.HasPrefix(tok, "ext:"):
			f.extInclude = append(f.extInclude, normalizeExt(strings.TrimPrefix(tok, "ext:")))
		default:
			terms = append(terms, tok)
		}
	}

	return f, strings.Join(terms, " ")
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// matches reports whether path passes every include/exclude clause. An
// empty include list matches everything; any exclude match rejects.
func (f filters) matches(path string) bool {
	lowerPath := strings.ToLower(path)

	if len(f.pathInclude) > 0 {
		var ok bool
		for _, sub := range f.pathInclude {
			if strings.Contains(lowerPath, strings.ToLower(sub)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, sub := range f.pathExclude {
		if strings.Contains(lowerPath, strings.ToLower(sub)) {
			return false
		}
	}

	ext := extOf(path)
	if len(f.extInclude) > 0 {
		var ok bool
		for _, e := range f.extInclude {
			if ext == e {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, e := range f.extExclude {
		if ext == e {
			return false
		}
	}

	return true
}

func extOf(path string) string {
	dot := strings.LastIndexByte(path, '.')
	slash := strings.LastIndexByte(path, '/')
	if dot <= slash {
		return ""
	}
	return strings.ToLower(path[dot:])
}
