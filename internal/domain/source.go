package domain

// Source is one cached subscription body. Vendor is the file name without
// extension and becomes part of every proxy name taken from the body.
type Source struct {
	Vendor string
	Path   string
	Body   []byte
}
