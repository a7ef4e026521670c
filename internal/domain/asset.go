package domain

// AssetMetadata describes one tradable perp instrument within a single
// network. Ids are array indexes into the venue's universe and are only
// meaningful within that network.
type AssetMetadata struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	SzDecimals int32  `json:"szDecimals"`
}
