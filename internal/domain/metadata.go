package domain

import (
	"fmt"
	"strings"
)

// DefaultMetadataSpec is the metadata version stamped on deployments that do
// not name one.
const DefaultMetadataSpec = "nft-1.0.0"

// Normalize fills defaults and checks required fields.
func (m ContractMetadata) Normalize() (ContractMetadata, error) {
	m.Spec = strings.TrimSpace(m.Spec)
	m.Name = strings.TrimSpace(m.Name)
	m.Symbol = strings.TrimSpace(m.Symbol)

	if m.Spec == "" {
		m.Spec = DefaultMetadataSpec
	}

	if m.Name == "" || m.Symbol == "" {
		return m, fmt.Errorf("%w: name and symbol are required", ErrInvalidMetadata)
	}

	return m, nil
}
