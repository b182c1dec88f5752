package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	t.Setenv("PROMETHEUS_DATASOURCE_UID", "")
	if err := Render(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")
	t.Setenv("PROMETHEUS_DATASOURCE_UID", "uid2")

	dir := t.TempDir()
	if err := Render(dir); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	tests := []struct {
		file string
		want []string
	}{
		{"counterdrone-greptime.json", []string{"uid1", "FROM radar_detections", "FROM intercept_results", "FROM interceptor_tracks", "FROM audio_detections"}},
		{"counterdrone-metrics.json", []string{"uid2", "counterdrone_intercepts_total", "counterdrone_active_hostiles"}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatalf("read dashboard: %v", err)
			}
			var doc struct {
				Title  string `json:"title"`
				Panels []any  `json:"panels"`
			}
			if err := json.Unmarshal(b, &doc); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if doc.Title == "" || len(doc.Panels) == 0 {
				t.Fatalf("dashboard missing title or panels")
			}
			for _, w := range tt.want {
				if !strings.Contains(string(b), w) {
					t.Errorf("dashboard missing %q", w)
				}
			}
		})
	}
}
