package hgvs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inodb/vibe-serve/internal/codon"
)

// ErrUnsupportedNotation is returned for protein changes that cannot be
// classified into a supported mutation kind.
var ErrUnsupportedNotation = errors.New("unsupported protein change notation")

// ChangeKind identifies the shape of a protein change.
type ChangeKind int

const (
	ChangeMissense ChangeKind = iota
	ChangeDeletion
	ChangeDuplication
	ChangeInsertion
	ChangeFrameshift
	ChangeDelIns
)

var changeKindNames = [...]string{
	ChangeMissense:    "missense",
	ChangeDeletion:    "deletion",
	ChangeDuplication: "duplication",
	ChangeInsertion:   "insertion",
	ChangeFrameshift:  "frameshift",
	ChangeDelIns:      "delins",
}

func (k ChangeKind) String() string {
	if k < 0 || int(k) >= len(changeKindNames) {
		return "unknown"
	}
	return changeKindNames[k]
}

// ProteinChange holds a parsed protein change. Amino acids are single letter
// codes. For single-residue changes EndAA and EndPos equal StartAA and StartPos.
type ProteinChange struct {
	Kind     ChangeKind
	StartAA  byte
	StartPos int64
	EndAA    byte
	EndPos   int64
	AltAAs   string // substituted or inserted residues
}

// String formats the change in single letter notation, e.g. "E746_A750del".
func (p ProteinChange) String() string {
	var sb strings.Builder
	sb.WriteByte(p.StartAA)
	sb.WriteString(strconv.FormatInt(p.StartPos, 10))
	if p.EndPos != p.StartPos {
		sb.WriteByte('_')
		sb.WriteByte(p.EndAA)
		sb.WriteString(strconv.FormatInt(p.EndPos, 10))
	}
	switch p.Kind {
	case ChangeMissense:
		sb.WriteString(p.AltAAs)
	case ChangeDeletion:
		sb.WriteString("del")
	case ChangeDuplication:
		sb.WriteString("dup")
	case ChangeInsertion:
		sb.WriteString("ins")
		sb.WriteString(p.AltAAs)
	case ChangeFrameshift:
		sb.WriteString(p.AltAAs)
		sb.WriteString("fs")
	case ChangeDelIns:
		sb.WriteString("delins")
		sb.WriteString(p.AltAAs)
	}
	return sb.String()
}

// aaPattern matches one residue in three letter or single letter form.
const aaPattern = `([A-Z][a-z]{2}|[ACDEFGHIKLMNPQRSTVWY*])`

// Regexes for protein change parsing.
var (
	// V600E, Val600Glu, V600*
	reMissense = regexp.MustCompile(`^` + aaPattern + `(\d+)` + aaPattern + `$`)
	// E746_A750del, L858del
	reDeletion = regexp.MustCompile(`^` + aaPattern + `(\d+)(?:_` + aaPattern + `(\d+))?del$`)
	// A767_V769dup
	reDuplication = regexp.MustCompile(`^` + aaPattern + `(\d+)(?:_` + aaPattern + `(\d+))?dup$`)
	// D770_N771insG, D770_N771insGlyAsn
	reInsertion = regexp.MustCompile(`^` + aaPattern + `(\d+)_` + aaPattern + `(\d+)ins([A-Za-z*]+)$`)
	// L747fs, L747Sfs*3, Leu747SerfsTer3
	reFrameshift = regexp.MustCompile(`^` + aaPattern + `(\d+)` + aaPattern + `?fs(?:\*|Ter)?(?:\d+|\?)?$`)
	// T790delinsGY, E746_T751delinsA
	reDelIns = regexp.MustCompile(`^` + aaPattern + `(\d+)(?:_` + aaPattern + `(\d+))?delins([A-Za-z*]+)$`)
	// Ter, Gly, ...
	reThreeLetterRun = regexp.MustCompile(`^(?:[A-Z][a-z]{2})+$`)
)

// ParseProteinChange parses a protein change with or without the "p." prefix.
// Supported shapes are substitutions, deletions, duplications, insertions,
// frameshifts and deletion-insertions in single or three letter notation.
func ParseProteinChange(s string) (ProteinChange, error) {
	input := strings.TrimSpace(s)
	input = strings.TrimPrefix(input, "p.")
	input = strings.TrimSuffix(strings.TrimPrefix(input, "("), ")")
	if input == "" {
		return ProteinChange{}, fmt.Errorf("empty protein change: %w", ErrUnsupportedNotation)
	}

	var (
		pc  ProteinChange
		err error
	)
	switch {
	case reDelIns.MatchString(input):
		pc, err = parseRange(reDelIns.FindStringSubmatch(input), ChangeDelIns)
	case reDeletion.MatchString(input):
		pc, err = parseRange(reDeletion.FindStringSubmatch(input), ChangeDeletion)
	case reDuplication.MatchString(input):
		pc, err = parseRange(reDuplication.FindStringSubmatch(input), ChangeDuplication)
	case reInsertion.MatchString(input):
		pc, err = parseRange(reInsertion.FindStringSubmatch(input), ChangeInsertion)
		if err == nil && pc.EndPos != pc.StartPos+1 {
			err = fmt.Errorf("insertion flanks %d and %d are not adjacent", pc.StartPos, pc.EndPos)
		}
	case reFrameshift.MatchString(input):
		pc, err = parseFrameshift(reFrameshift.FindStringSubmatch(input))
	case reMissense.MatchString(input):
		pc, err = parseMissense(reMissense.FindStringSubmatch(input))
	default:
		err = errors.New("unrecognized shape")
	}
	if err != nil {
		return ProteinChange{}, fmt.Errorf("parse %q: %v: %w", s, err, ErrUnsupportedNotation)
	}
	return pc, nil
}

func parseMissense(m []string) (ProteinChange, error) {
	ref, pos, err := parseResidue(m[1], m[2])
	if err != nil {
		return ProteinChange{}, err
	}
	alt := toSingle(m[3])
	if alt == 0 {
		return ProteinChange{}, fmt.Errorf("unknown amino acid %q", m[3])
	}
	return ProteinChange{
		Kind:     ChangeMissense,
		StartAA:  ref,
		StartPos: pos,
		EndAA:    ref,
		EndPos:   pos,
		AltAAs:   string(alt),
	}, nil
}

func parseFrameshift(m []string) (ProteinChange, error) {
	ref, pos, err := parseResidue(m[1], m[2])
	if err != nil {
		return ProteinChange{}, err
	}
	pc := ProteinChange{
		Kind:     ChangeFrameshift,
		StartAA:  ref,
		StartPos: pos,
		EndAA:    ref,
		EndPos:   pos,
	}
	if m[3] != "" {
		alt := toSingle(m[3])
		if alt == 0 {
			return ProteinChange{}, fmt.Errorf("unknown amino acid %q", m[3])
		}
		pc.AltAAs = string(alt)
	}
	return pc, nil
}

// parseRange handles the START[_END]<op>[SEQ] shapes. m holds the start
// residue and position, the optional end residue and position and, for
// insertions and delins, the residue sequence.
func parseRange(m []string, kind ChangeKind) (ProteinChange, error) {
	startAA, startPos, err := parseResidue(m[1], m[2])
	if err != nil {
		return ProteinChange{}, err
	}
	pc := ProteinChange{
		Kind:     kind,
		StartAA:  startAA,
		StartPos: startPos,
		EndAA:    startAA,
		EndPos:   startPos,
	}
	if m[3] != "" {
		pc.EndAA, pc.EndPos, err = parseResidue(m[3], m[4])
		if err != nil {
			return ProteinChange{}, err
		}
		if pc.EndPos < pc.StartPos {
			return ProteinChange{}, fmt.Errorf("range end %d before start %d", pc.EndPos, pc.StartPos)
		}
	}
	if len(m) > 5 {
		seq, err := parseSequence(m[5])
		if err != nil {
			return ProteinChange{}, err
		}
		pc.AltAAs = seq
	}
	return pc, nil
}

func parseResidue(aa, pos string) (byte, int64, error) {
	single := toSingle(aa)
	if single == 0 {
		return 0, 0, fmt.Errorf("unknown amino acid %q", aa)
	}
	n, err := strconv.ParseInt(pos, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse position %q: %w", pos, err)
	}
	if n < 1 {
		return 0, 0, fmt.Errorf("position %d is not positive", n)
	}
	return single, n, nil
}

// parseSequence converts a residue run such as "GY" or "GlyTyr" to single letters.
func parseSequence(seq string) (string, error) {
	if reThreeLetterRun.MatchString(seq) {
		out := make([]byte, 0, len(seq)/3)
		for i := 0; i < len(seq); i += 3 {
			aa := toSingle(seq[i : i+3])
			if aa == 0 {
				return "", fmt.Errorf("unknown amino acid %q", seq[i:i+3])
			}
			out = append(out, aa)
		}
		return string(out), nil
	}
	for i := 0; i < len(seq); i++ {
		if !codon.IsAminoAcid(seq[i]) {
			return "", fmt.Errorf("unknown amino acid %q in %q", seq[i], seq)
		}
	}
	return seq, nil
}

func toSingle(code string) byte {
	if len(code) == 1 {
		if codon.IsAminoAcid(code[0]) {
			return code[0]
		}
		return 0
	}
	if aa, ok := codon.ThreeToSingle[code]; ok && aa != 'X' {
		return aa
	}
	return 0
}
