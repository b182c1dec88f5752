// Package dashboard renders Grafana dashboards for the simulator's sinks.
package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"counterdrone-sim/internal/sim"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

var templateFiles = []string{
	"counterdrone-greptime.json.tmpl",
	"counterdrone-metrics.json.tmpl",
}

// Tables names the GreptimeDB tables the SQL panels query.
type Tables struct {
	Radar        string
	Drones       string
	Interceptors string
	Results      string
	Status       string
	Audio        string
}

// DefaultTables returns the table names written by the GreptimeDB writer.
func DefaultTables() Tables {
	return Tables{
		Radar:        sim.TableRadarDetections,
		Drones:       sim.TableDroneTracks,
		Interceptors: sim.TableInterceptorTracks,
		Results:      sim.TableInterceptResults,
		Status:       sim.TableSimulationStatus,
		Audio:        sim.TableAudioDetections,
	}
}

// Render executes the dashboard templates and writes them to outDir. Datasource
// uids come from the GREPTIMEDB_DATASOURCE_UID and PROMETHEUS_DATASOURCE_UID
// environment variables.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data := struct{ Tables Tables }{DefaultTables()}
	for _, name := range templateFiles {
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, path.Join("templates", name))
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return err
		}
		if !json.Valid(buf.Bytes()) {
			return fmt.Errorf("%s: rendered dashboard is not valid JSON", name)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
