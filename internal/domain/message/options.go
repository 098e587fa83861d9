package message

// ListOptions filters message listings. Results are newest first.
type ListOptions struct {
	SenderID string
	AssetID  string
	Limit    int
	Offset   int
}
