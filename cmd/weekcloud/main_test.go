package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/weekcloud/internal/layout"
	"github.com/verte-zerg/weekcloud/internal/pipeline"
	"github.com/verte-zerg/weekcloud/internal/week"
)

func TestWritePlacements(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	res := pipeline.Result{
		Window: week.Window{Start: start, End: start.AddDate(0, 0, 7)},
		Stats:  week.Stats{Count: 2, MeanScore: 3},
		Placements: []layout.Placement{
			{Term: "good", Count: 2, FontSize: 40, Rotation: layout.Rotate90, X: 10, Y: 20, Box: layout.Rect{X: 10, Y: 20, W: 48, H: 90}},
		},
		Dropped: []string{"tiny"},
	}
	path := filepath.Join(t.TempDir(), "out", "placements.yaml")
	if err := writePlacements(path, res, layout.Canvas{Width: 800, Height: 400}); err != nil {
		t.Fatalf("writePlacements failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var doc placementsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("yaml decode failed: %v", err)
	}
	if doc.Week != "2024-W01" || doc.Range != "2024-01-01..2024-01-07" || doc.Width != 800 {
		t.Fatalf("unexpected header %+v", doc)
	}
	if len(doc.Placements) != 1 || doc.Placements[0].Rotation != layout.Rotate90 || doc.Placements[0].Box.H != 90 {
		t.Fatalf("unexpected placements %+v", doc.Placements)
	}
	if len(doc.Dropped) != 1 || doc.Dropped[0] != "tiny" {
		t.Fatalf("unexpected dropped %v", doc.Dropped)
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var width, height int
	cmd.Flags().IntVar(&width, "width", 800, "")
	cmd.Flags().IntVar(&height, "height", 400, "")
	if err := cmd.Flags().Parse([]string{"--width", "1024"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	fileWidth, fileHeight := 640, 320
	applyIntConfig(cmd, "width", &width, &fileWidth)
	applyIntConfig(cmd, "height", &height, &fileHeight)
	if width != 1024 {
		t.Fatalf("flag should win, got width %d", width)
	}
	if height != 320 {
		t.Fatalf("config should fill unset flag, got height %d", height)
	}
	applyIntConfig(cmd, "height", &height, nil)
	if height != 320 {
		t.Fatalf("nil config value should not change height, got %d", height)
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("date", " 2024-01-03 ")
	if err != nil {
		t.Fatalf("parseDate failed: %v", err)
	}
	if !got.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", got)
	}
	if _, err := parseDate("date", "03/01/2024"); err == nil {
		t.Fatalf("expected error for bad date")
	}
}
