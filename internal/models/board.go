package models

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

type BoardIDInput struct {
	ID string `json:"id" jsonschema:"The ID of the board"`
}

type SearchInput struct {
	Query string `json:"query"`
}
