package people

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ListPage is one page of the list endpoint.
// An empty NextToken marks the last page.
type ListPage struct {
	IDs       []ID
	NextToken string
}

// HasNext reports whether another page can be requested.
func (p ListPage) HasNext() bool {
	return p.NextToken != ""
}

// listPayload mirrors the wire format: {"result": [1, 2], "token": "abc"}.
type listPayload struct {
	Result *[]ID            `json:"result"`
	Token  *json.RawMessage `json:"token"`
}

// ParseListPage decodes a list endpoint payload.
// The result array is required; the token is optional but must be a string
// (or null) when present.
func ParseListPage(data []byte) (ListPage, error) {
	var payload listPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "result" {
			return ListPage{}, &ValidationError{Entity: "list page", Field: "result", Reason: "must be an array of ids"}
		}
		return ListPage{}, fmt.Errorf("decode list page: %w", err)
	}
	if payload.Result == nil {
		return ListPage{}, &ValidationError{Entity: "list page", Field: "result", Reason: "is required"}
	}

	page := ListPage{IDs: *payload.Result}
	if payload.Token != nil {
		if err := json.Unmarshal(*payload.Token, &page.NextToken); err != nil {
			return ListPage{}, &ValidationError{Entity: "list page", Field: "token", Reason: "must be a string"}
		}
	}
	return page, nil
}
