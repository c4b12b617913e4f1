package pagination

// Response is the listing envelope returned to HTTP clients.
// T is the DTO type of the items.
type Response[T any] struct {
	Items    []T          `json:"items"`
	PageInfo PageInfoJSON `json:"pageInfo"`
}

// PageInfoJSON is the wire form of PageInfo with cursors as opaque tokens.
type PageInfoJSON struct {
	HasNextPage bool    `json:"hasNextPage"`
	HasPrevPage bool    `json:"hasPrevPage"`
	NextCursor  *string `json:"nextCursor"`
	PrevCursor  *string `json:"prevCursor"`
	PageCount   *int    `json:"pageCount,omitempty"`
}

// NewResponse builds the envelope, encoding cursors with codec.
func NewResponse[T any](items []T, info PageInfo, codec *CursorCodec) (Response[T], error) {
	if items == nil {
		items = []T{}
	}
	out := PageInfoJSON{
		HasNextPage: info.HasNextPage,
		HasPrevPage: info.HasPrevPage,
		PageCount:   info.PageCount,
	}
	var err error
	if out.NextCursor, err = encodeOptional(codec, info.NextCursor); err != nil {
		return Response[T]{}, err
	}
	if out.PrevCursor, err = encodeOptional(codec, info.PrevCursor); err != nil {
		return Response[T]{}, err
	}
	return Response[T]{Items: items, PageInfo: out}, nil
}

func encodeOptional(codec *CursorCodec, c *Cursor) (*string, error) {
	if c == nil {
		return nil, nil
	}
	token, err := codec.Encode(*c)
	if err != nil {
		return nil, err
	}
	return &token, nil
}
