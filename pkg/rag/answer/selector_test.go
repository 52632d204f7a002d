package answer

import (
	"testing"

	"ai-docchat-be/pkg/rag/tools"
)

func TestSelectKind(t *testing.T) {
	tests := []struct {
		name    string
		persona *PersonaConfig
		force   bool
		want    StrategyKind
	}{
		{
			name:    "no persona",
			persona: nil,
			want:    KindContextless,
		},
		{
			name:    "retrieval off and no tools",
			persona: &PersonaConfig{RetrievalEnabled: false},
			want:    KindContextless,
		},
		{
			name:    "retrieval on and no tools",
			persona: &PersonaConfig{RetrievalEnabled: true},
			want:    KindContextual,
		},
		{
			name: "tools configured",
			persona: &PersonaConfig{
				Tools: []tools.ToolConfig{{Name: "Calculator"}},
			},
			want: KindToolEnabled,
		},
		{
			name:    "forced tool prompt without tools",
			persona: &PersonaConfig{RetrievalEnabled: true},
			force:   true,
			want:    KindToolEnabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectKind(tt.persona, tt.force); got != tt.want {
				t.Errorf("SelectKind() = %s, want %s", got, tt.want)
			}
		})
	}
}
