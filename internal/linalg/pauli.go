package linalg

// The predefined single-qubit operator basis every program starts with.

// SigmaX returns the Pauli X matrix.
func SigmaX() Matrix {
	return Matrix{Rows: 2, Cols: 2, Data: []complex128{0, 1, 1, 0}}
}

// SigmaY returns the Pauli Y matrix.
func SigmaY() Matrix {
	return Matrix{Rows: 2, Cols: 2, Data: []complex128{0, complex(0, -1), complex(0, 1), 0}}
}

// SigmaZ returns the Pauli Z matrix.
func SigmaZ() Matrix {
	return Matrix{Rows: 2, Cols: 2, Data: []complex128{1, 0, 0, -1}}
}

// Basis returns the predefined named operators. The map is freshly allocated
// on every call; callers may extend it.
func Basis() map[string]Matrix {
	return map[string]Matrix{
		"sigma_x":  SigmaX(),
		"sigma_y":  SigmaY(),
		"sigma_z":  SigmaZ(),
		"identity": Identity(2),
	}
}
