package kinetic

import (
	"strings"
	"testing"
)

const sampleManifest = `
models:
  - id: ship
    path: assets/ship.png
fonts:
  - id: hud
    path: assets/hud.ttf
images:
  - id: splash
    path: assets/splash.png
    width: 320
    height: 200
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.Models) != 1 || m.Models[0].ID != "ship" || m.Models[0].Path != "assets/ship.png" {
		t.Errorf("Models = %+v", m.Models)
	}
	if len(m.Fonts) != 1 || m.Fonts[0].ID != "hud" {
		t.Errorf("Fonts = %+v", m.Fonts)
	}
	if len(m.Images) != 1 || m.Images[0].Width != 320 || m.Images[0].Height != 200 {
		t.Errorf("Images = %+v", m.Images)
	}
}

func TestParseManifestEmpty(t *testing.T) {
	m, err := ParseManifest(nil)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.Models) != 0 || len(m.Fonts) != 0 || len(m.Images) != 0 {
		t.Errorf("manifest = %+v, want empty", m)
	}
}

func TestParseManifestDuplicateID(t *testing.T) {
	data := []byte(`
models:
  - id: ship
    path: a.png
  - id: ship
    path: b.png
`)
	if _, err := ParseManifest(data); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v, want duplicate id error", err)
	}
}

func TestParseManifestDuplicateAcrossSectionsAllowed(t *testing.T) {
	data := []byte(`
models:
  - id: ship
    path: a.png
images:
  - id: ship
    path: b.png
`)
	if _, err := ParseManifest(data); err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
}

func TestParseManifestEmptyID(t *testing.T) {
	data := []byte(`
fonts:
  - path: assets/hud.ttf
`)
	if _, err := ParseManifest(data); err == nil || !strings.Contains(err.Error(), "empty id") {
		t.Fatalf("err = %v, want empty id error", err)
	}
}

func TestParseManifestBadYAML(t *testing.T) {
	if _, err := ParseManifest([]byte("models: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
