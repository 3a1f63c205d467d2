// Package layoutpb defines the LayoutService RPC contract. Messages travel as JSON over gRPC
// so browser clients and curl users share one shape with the REST endpoints.
package layoutpb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Price is the raw price as sent by the client: a JSON number or a string such as "R$ 12,99".
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("preco must be a number or a string: %w", err)
	}
	*p = Price(n.String())
	return nil
}

func (p Price) String() string { return string(p) }

type GenerateLayoutRequest struct {
	// Optional; generated when empty.
	RequestID string `json:"request_id,omitempty"`
	ProdCode  int    `json:"prod_code"`
	Preco     Price  `json:"preco"`
	Descricao string `json:"descricao"`
	Preset    string `json:"preset"`
	Client    string `json:"client,omitempty"`
	Tipo      string `json:"tipo,omitempty"`
	Selo      string `json:"selo,omitempty"`
	Destaque  bool   `json:"destaque,omitempty"`
	Obs       string `json:"obs,omitempty"`
}

func (r *GenerateLayoutRequest) GetProdCode() int {
	if r == nil {
		return 0
	}
	return r.ProdCode
}

// MissingFields lists the required fields that are empty, in declaration order.
func (r *GenerateLayoutRequest) MissingFields() []string {
	var missing []string
	if r.ProdCode == 0 {
		missing = append(missing, "prod_code")
	}
	if r.Preco == "" {
		missing = append(missing, "preco")
	}
	if strings.TrimSpace(r.Descricao) == "" {
		missing = append(missing, "descricao")
	}
	if strings.TrimSpace(r.Preset) == "" {
		missing = append(missing, "preset")
	}
	return missing
}

type GenerateLayoutResponse struct {
	RequestID   string `json:"request_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Image       []byte `json:"image"`
	// Top-left of the currency glyph; zero in percentage mode.
	SealX int `json:"seal_x"`
	SealY int `json:"seal_y"`
	// gs:// URL of the archived copy, when archiving is enabled.
	ArchiveURL string `json:"archive_url,omitempty"`
}

type RenderGridRequest struct {
	// A grid spec document.
	Spec json.RawMessage `json:"spec"`
}

type RenderGridResponse struct {
	ContentType string `json:"content_type"`
	Image       []byte `json:"image"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type SearchProductsRequest struct {
	Query         string  `json:"q"`
	Limit         int     `json:"limit,omitempty"`
	MinSimilarity float64 `json:"min_similarity,omitempty"`
}

type Product struct {
	Code  int     `json:"code"`
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Score float64 `json:"score"`
}

type SearchProductsResponse struct {
	Status  string    `json:"status"`
	Query   string    `json:"query"`
	Results []Product `json:"results"`
}

type ListPresetsRequest struct{}

type ListPresetsResponse struct {
	Presets []string `json:"presets"`
}
