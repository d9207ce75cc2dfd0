package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for an algorithm migration without colliding with old hashes.
const (
	domainProgram = "spinor/program/v1"
)

// ProgramHash computes the content-addressed identity of a lowered program:
// SHA-256 over the domain prefix, a null separator, and the program's JSON
// form. Struct field order fixes the JSON byte stream, so equal programs hash
// equal across processes.
func ProgramHash(p *Program) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("program hash: marshal: %w", err)
	}
	return hashWithDomain(domainProgram, data), nil
}

// hashWithDomain computes SHA-256 over domain + 0x00 + data. The null byte
// prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
