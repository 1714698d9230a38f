package codon

// SingleToThree converts single letter amino acid codes to three letter codes.
var SingleToThree = map[byte]string{
	'A': "Ala", 'C': "Cys", 'D': "Asp", 'E': "Glu",
	'F': "Phe", 'G': "Gly", 'H': "His", 'I': "Ile",
	'K': "Lys", 'L': "Leu", 'M': "Met", 'N': "Asn",
	'P': "Pro", 'Q': "Gln", 'R': "Arg", 'S': "Ser",
	'T': "Thr", 'V': "Val", 'W': "Trp", 'Y': "Tyr",
	'*': "Ter", 'X': "Xaa",
}

// ThreeToSingle maps three letter amino acid codes to single letter codes.
var ThreeToSingle map[string]byte

func init() {
	ThreeToSingle = make(map[string]byte, len(SingleToThree))
	for single, three := range SingleToThree {
		ThreeToSingle[three] = single
	}
}

// IsAminoAcid reports whether aa is a known single letter code, stop included.
func IsAminoAcid(aa byte) bool {
	_, ok := SingleToThree[aa]
	return ok && aa != 'X'
}
