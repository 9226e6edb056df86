package domain

// QueryKind distinguishes the two upstream data sources and their caches.
type QueryKind string

// Query kinds.
const (
	KindSearch   QueryKind = "search"
	KindContract QueryKind = "contract"
)

// String implements fmt.Stringer.
func (k QueryKind) String() string { return string(k) }
