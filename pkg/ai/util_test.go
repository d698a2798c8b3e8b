package ai

import (
	"testing"
)

type sampleOut struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    sampleOut
		wantErr bool
	}{
		{
			name:  "standard json",
			input: `{"name": "alpha", "count": 2}`,
			want:  sampleOut{Name: "alpha", Count: 2},
		},
		{
			name:  "double encoded",
			input: `"{\"name\": \"beta\", \"count\": 1}"`,
			want:  sampleOut{Name: "beta", Count: 1},
		},
		{
			name:  "malformed repaired",
			input: `{name: "gamma", count: 3}`,
			want:  sampleOut{Name: "gamma", Count: 3},
		},
		{
			name:  "duplicate leading brace",
			input: `{{"name": "delta", "count": 4}`,
			want:  sampleOut{Name: "delta", Count: 4},
		},
		{
			name:  "surrounding whitespace",
			input: "  {\"name\": \"eps\", \"count\": 5}\n",
			want:  sampleOut{Name: "eps", Count: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sampleOut
			err := UnmarshalFlexible(tt.input, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenerateSchemaIncludesProperties(t *testing.T) {
	schema := GenerateSchema(sampleOut{})
	if schema == nil {
		t.Fatal("expected non-nil schema")
	}
}
