package activity

const (
	// DefaultListLimit applies when a listing asks for no limit.
	DefaultListLimit = 50
	// MaxListLimit caps a single listing.
	MaxListLimit = 500
)

// ListActivityOptions filters a listing. Nil filters match everything.
type ListActivityOptions struct {
	AssetID      *string
	UserID       *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}

func (o ListActivityOptions) normalized() ListActivityOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
