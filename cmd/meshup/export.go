package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/chazu/meshup/internal/config"
	"github.com/chazu/meshup/pkg/meshup"
	"github.com/chazu/meshup/pkg/scene"
)

// exportScene writes the parts of sc that fit format into dir and returns
// the paths written.
func exportScene(sc *scene.Scene, format, dir, base string, up meshup.Axis) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if format == config.Format3MF {
		if len(sc.Meshes()) == 0 {
			return nil, fmt.Errorf("no mesh parts to export as %s", format)
		}
		path := filepath.Join(dir, base+".3mf")
		if err := sc.Collection().Save3MF(path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	var written []string
	for _, p := range sc.Parts {
		path, ok, err := writePart(p, format, dir, up)
		if err != nil {
			return written, fmt.Errorf("part %q: %w", p.Name, err)
		}
		if ok {
			written = append(written, path)
		}
	}
	if len(written) == 0 {
		kinds := lo.Uniq(lo.Map(sc.Parts, func(p *scene.Part, _ int) string { return p.Kind.String() }))
		return nil, fmt.Errorf("no parts to export as %s (scene has %v parts)", format, kinds)
	}
	return written, nil
}

// writePart saves one part under dir. ok is false when format does not
// apply to the part's kind.
func writePart(p *scene.Part, format, dir string, up meshup.Axis) (path string, ok bool, err error) {
	save := func(ext string, data []byte, err error) (string, bool, error) {
		if err != nil {
			return "", true, err
		}
		path := filepath.Join(dir, p.Name+"."+ext)
		return path, true, meshup.Save(path, data)
	}

	switch p.Kind {
	case scene.PartMesh:
		switch format {
		case config.FormatSTL:
			data, err := p.Mesh.ToSTLBinary()
			return save("stl", data, err)
		case config.FormatASCII:
			s, err := p.Mesh.ToSTLASCII()
			return save("stl", []byte(s), err)
		case config.FormatAMF:
			s, err := p.Mesh.ToAMF()
			return save("amf", []byte(s), err)
		case config.FormatGLTF:
			data, err := p.Mesh.ToGLTF(up)
			return save("gltf", data, err)
		}
	case scene.PartCurve:
		switch format {
		case config.FormatGLTF:
			data, err := p.Curve.ToGLTF(up)
			return save("gltf", data, err)
		case config.FormatSVG:
			var buf bytes.Buffer
			err := p.Curve.ToSVG(&buf)
			return save("svg", buf.Bytes(), err)
		case config.FormatDXF:
			path := filepath.Join(dir, p.Name+".dxf")
			return path, true, p.Curve.SaveDXF(path)
		}
	}
	return "", false, nil
}
