package layoutpb

import (
	"encoding/json"
	"slices"
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestPriceUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Price
	}{
		{`102.99`, "102.99"},
		{`0.25`, "0.25"},
		{`"R$ 12,99"`, "R$ 12,99"},
		{`"  7,5 "`, "7,5"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var p Price
		if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if p != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, p, tt.want)
		}
	}

	var p Price
	if err := json.Unmarshal([]byte(`true`), &p); err == nil {
		t.Fatal("Unmarshal accepted a boolean price")
	}
}

func TestMissingFields(t *testing.T) {
	var req GenerateLayoutRequest
	if err := json.Unmarshal([]byte(`{"prod_code": 4711, "preco": 9.99, "descricao": "  "}`), &req); err != nil {
		t.Fatal(err)
	}
	if got := req.MissingFields(); !slices.Equal(got, []string{"descricao", "preset"}) {
		t.Fatalf("MissingFields() = %v", got)
	}

	req.Descricao = "arroz"
	req.Preset = "padrao"
	if got := req.MissingFields(); len(got) != 0 {
		t.Fatalf("MissingFields() = %v, want none", got)
	}
}

func TestCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	if codec == nil {
		t.Fatal("json codec not registered")
	}
	data, err := codec.Marshal(&SearchProductsRequest{Query: "batata", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	var out SearchProductsRequest
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Query != "batata" || out.Limit != 3 {
		t.Fatalf("decoded %+v", out)
	}
}
