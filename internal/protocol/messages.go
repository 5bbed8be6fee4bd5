package protocol

import "craftbench.ai/internal/sim/crafting"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	ResumeToken     string `json:"resume_token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	ResumeToken     string         `json:"resume_token"`
	Resumed         bool           `json:"resumed,omitempty"`
	UIScale         float64        `json:"ui_scale"`
	Catalogs        CatalogDigests `json:"catalogs"`
	Widgets         []string       `json:"widgets"`
}

type CatalogDigests struct {
	ItemsDigest   string `json:"items_digest"`
	RecipesDigest string `json:"recipes_digest"`
	TuningDigest  string `json:"tuning_digest,omitempty"`
}

// SELECT (client -> server): activate inventory slot.
type SelectMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Slot            int    `json:"slot"`
}

// INTERACT (client -> server): click a crafting cell by index.
type InteractMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Cell            int    `json:"cell"`
	Button          string `json:"button"`
}

// CLICK (client -> server): click any bench widget by handle.
type ClickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Widget          string `json:"widget"`
	Button          string `json:"button"`
}

// VIEW (server -> client)
type ViewMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seq             uint64 `json:"seq"`
	Digest          string `json:"digest"`
	RecipeID        string `json:"recipe_id,omitempty"`
	crafting.View
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}
