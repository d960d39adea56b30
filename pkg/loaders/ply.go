// Package loaders reads triangle meshes from interchange files.
package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/geometry"
)

// ErrInvalidPLY is returned for malformed PLY input
var ErrInvalidPLY = errors.New("invalid PLY")

const (
	// maxPreallocate bounds up-front allocation from header counts; larger
	// elements still load, growing as data actually arrives
	maxPreallocate = 1 << 20
	// maxListLength is the most vertices accepted in one face
	maxListLength = 1 << 16
)

// errTruncated marks data that ended before the header's counts were satisfied
var errTruncated = fmt.Errorf("%w: truncated data", ErrInvalidPLY)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "ascii", "binary_little_endian" or "binary_big_endian"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element block declared in the header, e.g. "vertex" or "face"
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// Element returns the element named name
func (h *PLYHeader) Element(name string) (PLYElement, bool) {
	for _, e := range h.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return PLYElement{}, false
}

// LoadPLY loads a PLY file as a triangle mesh
func LoadPLY(filename string) (*geometry.Mesh, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ParsePLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	slog.Debug("loaded PLY mesh",
		slog.String("file", filename),
		slog.Int("vertices", mesh.VertexCount()),
		slog.Int("triangles", mesh.TriangleCount()),
		slog.Duration("elapsed", time.Since(startTime)))
	return mesh, nil
}

// ParsePLY reads a PLY stream. Polygons are triangulated as fans; a face
// "material_index" property becomes the per-triangle material slot.
func ParsePLY(r io.Reader) (*geometry.Mesh, error) {
	reader := bufio.NewReader(r)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values valueReader
	switch header.Format {
	case "ascii":
		values = newASCIIReader(reader)
	case "binary_little_endian":
		values = &binaryReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryReader{r: reader, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidPLY, header.Format)
	}

	var b meshBuilder
	for _, element := range header.Elements {
		if err := b.readElement(values, element); err != nil {
			return nil, fmt.Errorf("failed to read PLY %s data: %w", element.Name, err)
		}
	}

	var materialIDs []int
	if b.hasMaterials {
		materialIDs = b.materialIDs
	}
	mesh, err := geometry.NewMesh(b.vertices, b.indices, materialIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPLY, err)
	}
	return mesh, nil
}

// parsePLYHeader reads header lines up to and including end_header
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	first := true

	for {
		raw, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLY)
			}
			return nil, err
		}
		line := strings.TrimSpace(raw)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("%w: missing magic number", ErrInvalidPLY)
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: invalid format line %q", ErrInvalidPLY, line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: invalid element line %q", ErrInvalidPLY, line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: invalid element count %q", ErrInvalidPLY, parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("%w: property before element", ErrInvalidPLY)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			current := &header.Elements[len(header.Elements)-1]
			current.Props = append(current.Props, prop)
		default:
			return nil, fmt.Errorf("%w: unexpected header line %q", ErrInvalidPLY, line)
		}
	}

	if header.Format == "" {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidPLY)
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("%w: invalid property definition", ErrInvalidPLY)
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("%w: invalid list property definition", ErrInvalidPLY)
		}
		prop := PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}
		if typeSize(prop.ListType) == 0 || typeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("%w: unsupported list types %s %s", ErrInvalidPLY, prop.ListType, prop.DataType)
		}
		return prop, nil
	}

	prop := PLYProperty{Type: parts[0], Name: parts[1]}
	if typeSize(prop.Type) == 0 {
		return PLYProperty{}, fmt.Errorf("%w: unsupported data type %s", ErrInvalidPLY, prop.Type)
	}
	return prop, nil
}

// typeSize returns the size in bytes of a PLY data type, or 0 if unknown
func typeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// valueReader yields the next scalar of the given PLY type
type valueReader interface {
	scalar(dataType string) (float64, error)
}

type asciiReader struct {
	words *bufio.Scanner
}

func newASCIIReader(r io.Reader) *asciiReader {
	words := bufio.NewScanner(r)
	words.Split(bufio.ScanWords)
	return &asciiReader{words: words}
}

func (a *asciiReader) scalar(dataType string) (float64, error) {
	if !a.words.Scan() {
		if err := a.words.Err(); err != nil {
			return 0, err
		}
		return 0, errTruncated
	}
	value, err := strconv.ParseFloat(a.words.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s value %q", ErrInvalidPLY, dataType, a.words.Text())
	}
	return value, nil
}

type binaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) scalar(dataType string) (float64, error) {
	size := typeSize(dataType)
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, errTruncated
		}
		return 0, err
	}

	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	case "double", "float64":
		return math.Float64frombits(b.order.Uint64(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "char", "int8":
		return float64(int8(data[0])), nil
	default:
		return float64(data[0]), nil
	}
}

// meshBuilder accumulates vertex and face elements
type meshBuilder struct {
	vertices     []core.Vec3
	indices      []int
	materialIDs  []int
	hasMaterials bool
}

func (b *meshBuilder) readElement(values valueReader, element PLYElement) error {
	switch element.Name {
	case "vertex":
		b.vertices = make([]core.Vec3, 0, min(element.Count, maxPreallocate))
	case "face":
		b.indices = make([]int, 0, min(element.Count, maxPreallocate)*3)
	}

	for i := 0; i < element.Count; i++ {
		var position core.Vec3
		var polygon []float64
		material := 0

		for _, prop := range element.Props {
			if prop.IsList {
				list, err := readList(values, prop)
				if err != nil {
					return fmt.Errorf("%s %d: %w", element.Name, i, err)
				}
				if element.Name == "face" && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
					polygon = list
				}
				continue
			}

			value, err := values.scalar(prop.Type)
			if err != nil {
				return fmt.Errorf("%s %d: %w", element.Name, i, err)
			}
			switch {
			case element.Name == "vertex" && prop.Name == "x":
				position.X = value
			case element.Name == "vertex" && prop.Name == "y":
				position.Y = value
			case element.Name == "vertex" && prop.Name == "z":
				position.Z = value
			case element.Name == "face" && prop.Name == "material_index":
				id, ok := toInt(value, geometry.MaxMaterialSlots)
				if !ok {
					return fmt.Errorf("%w: face %d material index %v out of range", ErrInvalidPLY, i, value)
				}
				material = id
				b.hasMaterials = true
			}
		}

		switch element.Name {
		case "vertex":
			b.vertices = append(b.vertices, position)
		case "face":
			if len(polygon) < 3 {
				return fmt.Errorf("%w: face %d has %d vertices", ErrInvalidPLY, i, len(polygon))
			}
			corners := make([]int, len(polygon))
			for k, value := range polygon {
				index, ok := toInt(value, math.MaxInt32)
				if !ok {
					return fmt.Errorf("%w: face %d vertex index %v out of range", ErrInvalidPLY, i, value)
				}
				corners[k] = index
			}
			// Fan triangulation around the first vertex
			for k := 1; k+1 < len(corners); k++ {
				b.indices = append(b.indices, corners[0], corners[k], corners[k+1])
				b.materialIDs = append(b.materialIDs, material)
			}
		}
	}
	return nil
}

func readList(values valueReader, prop PLYProperty) ([]float64, error) {
	count, err := values.scalar(prop.ListType)
	if err != nil {
		return nil, err
	}
	n, ok := toInt(count, maxListLength+1)
	if !ok {
		return nil, fmt.Errorf("%w: list length %v out of range", ErrInvalidPLY, count)
	}
	list := make([]float64, n)
	for k := range list {
		if list[k], err = values.scalar(prop.DataType); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// toInt converts a whole number in [0, limit) read from the file
func toInt(value float64, limit int) (int, bool) {
	if value < 0 || value >= float64(limit) || value != math.Trunc(value) {
		return 0, false
	}
	return int(value), true
}
