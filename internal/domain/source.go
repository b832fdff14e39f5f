package domain

// ShareSource identifies where shares come from in a transfer.
type ShareSource struct {
	issuer   bool
	sellerID string
}

// IssuerSource is the public float of the stock.
func IssuerSource() ShareSource {
	return ShareSource{issuer: true}
}

// SellerSource is the holding of a specific account.
func SellerSource(sellerID string) ShareSource {
	return ShareSource{sellerID: sellerID}
}

// IsIssuer reports whether shares are drawn from the public float.
func (s ShareSource) IsIssuer() bool {
	return s.issuer
}

// SellerID returns the selling account, empty for the issuer.
func (s ShareSource) SellerID() string {
	return s.sellerID
}

// Validate rejects a seller source that names no account. The zero value
// is such a source, so it never falls through to the public float.
func (s ShareSource) Validate() error {
	if !s.issuer && s.sellerID == "" {
		return ErrMissingReference
	}
	return nil
}

// SellerRef returns the seller as an optional reference for trade records.
func (s ShareSource) SellerRef() *string {
	if s.IsIssuer() {
		return nil
	}
	id := s.sellerID
	return &id
}
