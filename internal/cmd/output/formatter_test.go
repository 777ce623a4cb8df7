package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/ribbonsync"
	"github.com/agentstation/ribbonsync/pkg/discovery"
	"github.com/agentstation/ribbonsync/pkg/errors"
	"github.com/agentstation/ribbonsync/pkg/oplog"
	"github.com/agentstation/ribbonsync/pkg/reconciler"
	"github.com/agentstation/ribbonsync/pkg/tree"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"table", FormatTable, false},
		{"text", FormatText, false},
		{"", "", false},
		{"wide", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("Yaml"))
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	err := (&TableFormatter{}).Format(&buf, Data{
		Headers: []string{"Name", "Count"},
		Rows:    [][]string{{"Tools", "3"}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Tools")
	assert.Contains(t, buf.String(), "3")
}

func TestTableFormatterFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableFormatter{}).Format(&buf, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, map[string][]string{"tabs": {"Tools"}}))
	assert.Equal(t, "tabs:\n- Tools\n", buf.String())
}

func TestTreeFormatter(t *testing.T) {
	pkg := &tree.Node{Kind: tree.KindPackage, Identity: "Acme", Children: []*tree.Node{
		{Kind: tree.KindTab, Identity: "Tools", Children: []*tree.Node{
			{Kind: tree.KindPanel, Identity: "Main", Children: []*tree.Node{
				{Kind: tree.KindCommand, Identity: "Ping", Type: tree.TypePush},
			}},
		}},
	}}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText).Format(&buf, pkg))
	out := buf.String()
	assert.Contains(t, out, "Acme\n")
	assert.Contains(t, out, "Tools (Tab)")
	assert.Contains(t, out, "Main (Panel)")
	assert.Contains(t, out, "Ping [Push]")
}

func report() *ribbonsync.Report {
	log := &oplog.Log{}
	log.Add(oplog.ActionCreate, oplog.LevelTab, []string{"Tools"})
	log.Add(oplog.ActionDisable, oplog.LevelItem, []string{"Tools", "Main", "Old"})
	return &ribbonsync.Report{
		RunID: "run-1",
		Packages: []*ribbonsync.PackageReport{
			{
				Root:     "/ext/Acme",
				Identity: "Acme",
				Tabs:     []ribbonsync.TabReport{{Identity: "Tools", Source: ribbonsync.SourceCache, Commands: 2}},
				Result:   &reconciler.Result{Log: log},
			},
			{Root: "/ext/Broken", Err: errors.New("no such directory")},
		},
	}
}

func TestReportData(t *testing.T) {
	data := ReportData(report())
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"Acme", "1", "1", "1", "0", "1", "0", "ok"}, data.Rows[0])
	assert.Equal(t, "/ext/Broken", data.Rows[1][0])
	assert.Equal(t, "failed: no such directory", data.Rows[1][7])
}

func TestOperationsData(t *testing.T) {
	data := OperationsData(report())
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"Acme", "disable", "item", "Tools/Main/Old"}, data.Rows[1])
}

func TestDiagnosticsData(t *testing.T) {
	data := DiagnosticsData([]discovery.Diagnostic{{
		Severity: discovery.SeverityWarning,
		Code:     discovery.CodeMissingScript,
		Path:     "Tools.tab/x.png",
		Message:  "no script",
	}})
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "Tools.tab/x.png", data.Rows[0][2])
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, FormatText, report()))
	out := buf.String()
	assert.Contains(t, out, "✓ Acme: 1 tabs (1 cached)")
	assert.Contains(t, out, "✗ /ext/Broken: failed: no such directory")
	assert.Contains(t, out, "2 packages: 1 created, 0 updated, 1 disabled (1 failed)")

	buf.Reset()
	require.NoError(t, WriteReport(&buf, FormatJSON, report()))
	assert.Contains(t, buf.String(), `"run_id": "run-1"`)
	assert.Contains(t, buf.String(), `"error": "no such directory"`)
}
