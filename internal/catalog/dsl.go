package catalog

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	objectRe        = regexp.MustCompile(`^object\s+(\w+)\s*:\s*$`)
	fieldRe         = regexp.MustCompile(`^\s*([\w_]+):\s*([^\s#]+)(.*)$`)
	enumRe          = regexp.MustCompile(`^enum\[(.*)\]$`)
	refRe           = regexp.MustCompile(`^ref\[([A-Za-z0-9_]+)\]$`)
	arrayRe         = regexp.MustCompile(`^array\[(.+)\]$`)
	reChildrenStart = regexp.MustCompile(`^\s*children\s*:\s*$`)
	reChildLine     = regexp.MustCompile(`^\s*(\w+)\s*:\s*(\w+)\.(\w+)\s*$`)
)

// splitOptionTokens делит `label="Account Name" required namefield=Name` на токены,
// не разрывая значения в кавычках и внутри [...]
func splitOptionTokens(s string) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false
	bracketDepth := 0

	flush := func() {
		if len(buf) > 0 {
			out = append(out, string(buf))
			buf = buf[:0]
		}
	}

	for _, r := range s {
		switch r {
		case '\'':
			if !inDouble && bracketDepth == 0 {
				inSingle = !inSingle
			}
			buf = append(buf, r)
		case '"':
			if !inSingle && bracketDepth == 0 {
				inDouble = !inDouble
			}
			buf = append(buf, r)
		case '[':
			if !inSingle && !inDouble {
				bracketDepth++
			}
			buf = append(buf, r)
		case ']':
			if !inSingle && !inDouble && bracketDepth > 0 {
				bracketDepth--
			}
			buf = append(buf, r)
		default:
			if (r == ' ' || r == '\t' || r == ',') && !inSingle && !inDouble && bracketDepth == 0 {
				flush()
				continue
			}
			buf = append(buf, r)
		}
	}
	flush()
	return out
}

// ParseObjects читает описание объектов:
//
//	object Account:
//	  Name: string label="Account Name" required
//	  Industry: enum[Banking, Energy]
//	  OwnerId: ref[User] relationship=Owner
//	  children:
//	    Contacts: Contact.AccountId
func ParseObjects(r io.Reader) ([]*Object, error) {
	var objects []*Object
	var current *Object
	inChildren := false
	lineNo := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := objectRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				objects = append(objects, current)
			}
			current = &Object{Name: m[1]}
			inChildren = false
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: %q outside of object", lineNo, line)
		}

		if reChildrenStart.MatchString(line) {
			inChildren = true
			continue
		}
		if inChildren {
			if m := reChildLine.FindStringSubmatch(line); m != nil {
				current.Children = append(current.Children, ChildRelationship{Name: m[1], Object: m[2], Field: m[3]})
				continue
			}
			inChildren = false
		}

		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: cannot parse %q", lineNo, line)
		}
		f, err := parseField(m[1], m[2], m[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		current.Fields = append(current.Fields, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		objects = append(objects, current)
	}
	return objects, nil
}

func parseField(name, rawType, tail string) (Field, error) {
	// enum[a, b] с пробелами регэксп обрывает — доклеиваем до ]
	if depth := strings.Count(rawType, "[") - strings.Count(rawType, "]"); depth > 0 {
		for i, r := range tail {
			switch r {
			case '[':
				depth++
			case ']':
				depth--
			}
			if depth == 0 {
				rawType += tail[:i+1]
				tail = tail[i+1:]
				break
			}
		}
	}

	optsRaw := strings.TrimSpace(tail)
	if i := strings.IndexByte(optsRaw, '#'); i >= 0 {
		optsRaw = strings.TrimSpace(optsRaw[:i])
	}

	f := Field{Name: name, Type: rawType, Options: map[string]string{}}

	if mm := enumRe.FindStringSubmatch(rawType); mm != nil {
		f.Type = "enum"
		f.Enum = splitEnum(mm[1])
	} else if mm := refRe.FindStringSubmatch(rawType); mm != nil {
		f.Type = "ref"
		f.RefTarget = mm[1]
	} else if mm := arrayRe.FindStringSubmatch(rawType); mm != nil {
		f.Type = "array"
		f.ElemType = strings.TrimSpace(mm[1])
		if em := enumRe.FindStringSubmatch(f.ElemType); em != nil {
			f.ElemType = "enum"
			f.Enum = splitEnum(em[1])
		}
	} else if strings.ContainsAny(rawType, "[]") {
		return f, fmt.Errorf("field %s: bad type %q", name, rawType)
	}

	for _, tok := range splitOptionTokens(optsRaw) {
		if !strings.Contains(tok, "=") {
			f.Options[strings.ToLower(tok)] = "true"
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
				v = v[1 : len(v)-1]
			}
		}
		if k != "" {
			f.Options[k] = v
		}
	}
	return f, nil
}

func splitEnum(inside string) []string {
	var out []string
	for _, p := range strings.Split(inside, ",") {
		s := strings.Trim(strings.TrimSpace(p), `"'`)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// LoadObjects обходит root и читает все *.dsl
func LoadObjects(root string) (map[string]*Object, error) {
	result := make(map[string]*Object)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".dsl") {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		objs, err := ParseObjects(file)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for _, o := range objs {
			if _, exists := result[o.Name]; exists {
				return fmt.Errorf("duplicate object %q (file: %s)", o.Name, path)
			}
			result[o.Name] = o
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
