// Package models defines the request and response bodies of the HTTP API.
package models

import "smartdash/internal/pipeline"

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is returned by session-creating and session-mutating
// endpoints: the session id plus a full dashboard frame.
type SessionResponse struct {
	SessionID string             `json:"session_id"`
	View      pipeline.ViewModel `json:"view"`
	// UnitCostColumn names a detected cost column, for margin hints in the
	// frontend. It is informational and never part of the mapping.
	UnitCostColumn string `json:"unit_cost_column,omitempty"`
}

// MappingRequest updates role-to-column assignments. An empty column name
// unsets the role.
type MappingRequest struct {
	Mapping map[string]string `json:"mapping"`
}

// FilterRequest replaces the selection for one filter role. An empty values
// list switches the filter off.
type FilterRequest struct {
	Role   string   `json:"role"`
	Values []string `json:"values"`
}

// PreferencesRequest updates display preferences.
type PreferencesRequest struct {
	Theme           *string `json:"theme,omitempty"`
	ShowFullPreview *bool   `json:"show_full_preview,omitempty"`
}

// DBConnectRequest carries database connection details.
type DBConnectRequest struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// DBTablesResponse lists the tables of the connected database.
type DBTablesResponse struct {
	Tables []string `json:"tables"`
}

// DBLoadRequest materializes one table into a new session.
type DBLoadRequest struct {
	Table string `json:"table"`
}
