package models

// DeleteCardInput identifies the card to delete.
type DeleteCardInput struct {
	ID string `json:"id" jsonschema:"The ID of the card to delete"`
}

// UpdateCardInput holds the card ID plus any fields to change. Only fields
// that were provided are sent to Trello.
type UpdateCardInput struct {
	ID          string   `json:"id" jsonschema:"The ID of the card to update"`
	Name        *string  `json:"name,omitempty" jsonschema:"New name for the card"`
	Desc        *string  `json:"desc,omitempty" jsonschema:"New description for the card"`
	Due         *string  `json:"due,omitempty" jsonschema:"Due date (ISO 8601 format) or null to remove"`
	DueComplete *bool    `json:"dueComplete,omitempty" jsonschema:"Whether the due date is marked complete"`
	IDList      *string  `json:"idList,omitempty" jsonschema:"ID of the list to move the card to"`
	IDBoard     *string  `json:"idBoard,omitempty" jsonschema:"ID of the board to move the card to"`
	Closed      *bool    `json:"closed,omitempty" jsonschema:"Whether the card is archived"`
	IDMembers   []string `json:"idMembers,omitempty" jsonschema:"Array of member IDs to assign to the card"`
	IDLabels    []string `json:"idLabels,omitempty" jsonschema:"Array of label IDs to assign to the card"`
	// Pos is a number or one of "top" and "bottom".
	Pos any `json:"pos,omitempty" jsonschema:"Position of the card"`
}

// Query returns the provided update fields keyed by their Trello names.
func (in UpdateCardInput) Query() map[string]any {
	query := map[string]any{}
	set := func(key string, value any, ok bool) {
		if ok {
			query[key] = value
		}
	}
	set("name", in.Name, in.Name != nil)
	set("desc", in.Desc, in.Desc != nil)
	set("due", in.Due, in.Due != nil)
	set("dueComplete", in.DueComplete, in.DueComplete != nil)
	set("idList", in.IDList, in.IDList != nil)
	set("idBoard", in.IDBoard, in.IDBoard != nil)
	set("closed", in.Closed, in.Closed != nil)
	set("idMembers", in.IDMembers, in.IDMembers != nil)
	set("idLabels", in.IDLabels, in.IDLabels != nil)
	set("pos", in.Pos, in.Pos != nil)
	return query
}
