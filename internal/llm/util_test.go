package llm

import "testing"

func TestText(t *testing.T) {
	t.Parallel()

	resp := &Response{Content: []ContentBlock{
		{Type: "text", Text: "hello "},
		{Type: "tool_use"},
		{Type: "text", Text: "world"},
	}}
	if got := Text(resp); got != "hello world" {
		t.Fatalf("Text() = %q, want %q", got, "hello world")
	}
	if got := Text(nil); got != "" {
		t.Fatalf("Text(nil) = %q, want empty", got)
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    string
	}{
		{name: "plain", raw: `{"verdict":"YES"}`, want: "YES"},
		{name: "fenced", raw: "```json\n{\"verdict\":\"NO\"}\n```", want: "NO"},
		{name: "prose around object", raw: "Here you go:\n{\"verdict\":\"YES\"}\nDone.", want: "YES"},
		{name: "empty", raw: "", wantErr: true},
		{name: "no object", raw: "nothing here", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out struct {
				Verdict string `json:"verdict"`
			}
			err := ParseJSON(tt.raw, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseJSON: %v", err)
			}
			if out.Verdict != tt.want {
				t.Fatalf("verdict = %q, want %q", out.Verdict, tt.want)
			}
		})
	}
}
