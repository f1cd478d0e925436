package model

// Overlap is a characteristic present in both identities of a switch with
// different values — a contradiction to assert to the remote model.
type Overlap struct {
	Name     string `json:"name"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// DenialOnly is a characteristic of the previous identity with no counterpart
// in the new one — a fact to retract with no replacement offered.
type DenialOnly struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
