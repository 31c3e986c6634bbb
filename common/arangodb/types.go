package arangodb

// CollectionSpec describes a document collection and the persistent indexes
// it must carry.
type CollectionSpec struct {
	Name    string
	Indexes []IndexSpec
}

type IndexSpec struct {
	Name   string
	Fields []string
	Unique bool
	Sparse bool
}
